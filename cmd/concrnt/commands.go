package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/dep2p/go-concrnt"
	"github.com/dep2p/go-concrnt/config"
	"github.com/dep2p/go-concrnt/internal/core/fetch"
	"github.com/dep2p/go-concrnt/internal/core/identity"
	"github.com/dep2p/go-concrnt/internal/core/securestore"
	"github.com/dep2p/go-concrnt/pkg/interfaces"
)

// ============================================================================
//                              子命令参数
// ============================================================================

func saveFlag(fs *pflag.FlagSet, f *commandFlags) {
	fs.BoolVar(&f.save, "save", false, "保存到身份存储")
}

func hintFlag(fs *pflag.FlagSet, f *commandFlags) {
	fs.StringVar(&f.hint, "hint", "", "实体所在服务器（缺省为默认服务器）")
}

func domainFlag(fs *pflag.FlagSet, f *commandFlags) {
	fs.StringVar(&f.domain, "domain", "", "目标服务器（缺省按 URI 解析）")
}

func getFlags(fs *pflag.FlagSet, f *commandFlags) {
	domainFlag(fs, f)
	fs.StringVar(&f.cache, "cache", "default", "缓存模式: default / force-cache / no-cache / best-effort / negative-only")
}

// ============================================================================
//                              身份
// ============================================================================

func runKeygen(ctx context.Context, g *globalFlags, f *commandFlags, _ []string) error {
	id, err := identity.GenerateIdentity()
	if err != nil {
		return err
	}
	if f.save {
		cfg, err := g.loadConfig()
		if err != nil {
			return err
		}
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		ids := identity.NewStore(store)
		if _, ok, err := ids.Load(ctx); err != nil {
			return err
		} else if ok {
			return errors.New("存储中已有身份，请先执行 logout")
		}
		if err := ids.Save(ctx, id); err != nil {
			return err
		}
		if cfg.Host != "" {
			if err := ids.SetHost(ctx, cfg.Host); err != nil {
				return err
			}
		}
	}

	fmt.Printf("地址:       %s\n", id.CCID)
	fmt.Printf("公钥:       %s\n", id.PublicKey)
	fmt.Printf("助记词:     %s\n", id.Mnemonic)
	fmt.Printf("助记词(日): %s\n", id.MnemonicJa)
	return nil
}

func runAddress(ctx context.Context, g *globalFlags, _ *commandFlags, _ []string) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	ids := identity.NewStore(store)

	if sk, ok, err := ids.SubKey(ctx); err != nil {
		return err
	} else if ok {
		fmt.Printf("%s (subkey %s@%s)\n", sk.CCID, sk.CKID, sk.Domain)
		return nil
	}
	id, ok, err := ids.Load(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("存储中没有身份")
	}
	fmt.Println(id.CCID)
	return nil
}

func runLogout(ctx context.Context, g *globalFlags, _ *commandFlags, _ []string) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	return concrnt.Logout(ctx, store)
}

// ============================================================================
//                              读取
// ============================================================================

func runServer(ctx context.Context, g *globalFlags, _ *commandFlags, args []string) error {
	return withClient(ctx, g, func(c *concrnt.Client) error {
		remote := ""
		if len(args) > 0 {
			remote = args[0]
		}
		server, err := c.GetServer(ctx, remote)
		if err != nil {
			return err
		}
		return printJSON(server)
	})
}

func runEntity(ctx context.Context, g *globalFlags, f *commandFlags, args []string) error {
	if len(args) != 1 {
		return errors.New("用法: concrnt entity <ccid>")
	}
	return withClient(ctx, g, func(c *concrnt.Client) error {
		entity, err := c.GetEntity(ctx, args[0], f.hint)
		if err != nil {
			return err
		}
		return printJSON(entity)
	})
}

func runGet(ctx context.Context, g *globalFlags, f *commandFlags, args []string) error {
	if len(args) != 1 {
		return errors.New("用法: concrnt get <uri>")
	}
	mode, err := parseCacheMode(f.cache)
	if err != nil {
		return err
	}
	return withClient(ctx, g, func(c *concrnt.Client) error {
		raw, err := c.GetResourceRaw(ctx, args[0], f.domain, fetch.WithCacheMode(mode))
		if err != nil {
			return err
		}
		if raw == nil {
			return fmt.Errorf("%s: %w", args[0], concrnt.ErrNotFound)
		}
		return printJSON(raw)
	})
}

func parseCacheMode(s string) (fetch.CacheMode, error) {
	for _, m := range []fetch.CacheMode{
		fetch.CacheDefault,
		fetch.CacheForce,
		fetch.CacheNone,
		fetch.CacheBestEffort,
		fetch.CacheNegativeOnly,
	} {
		if m.String() == s {
			return m, nil
		}
	}
	return fetch.CacheDefault, fmt.Errorf("未知缓存模式 %q", s)
}

// ============================================================================
//                              写入
// ============================================================================

func runCommit(ctx context.Context, g *globalFlags, f *commandFlags, args []string) error {
	if len(args) != 1 {
		return errors.New("用法: concrnt commit <file.json>")
	}
	data, err := os.ReadFile(args[0]) //nolint:gosec // G304: 用户指定的文档路径是预期行为
	if err != nil {
		return err
	}
	if !json.Valid(data) {
		return fmt.Errorf("%s: %w", args[0], concrnt.ErrInvalidDocument)
	}
	return withClient(ctx, g, func(c *concrnt.Client) error {
		ack, err := c.Commit(ctx, json.RawMessage(data), f.domain)
		if err != nil {
			return err
		}
		return printJSON(ack)
	})
}

func runAffiliate(ctx context.Context, g *globalFlags, _ *commandFlags, args []string) error {
	return withClient(ctx, g, func(c *concrnt.Client) error {
		domain := ""
		if len(args) > 0 {
			domain = args[0]
		}
		ack, err := c.Affiliate(ctx, domain)
		if err != nil {
			return err
		}
		return printJSON(ack)
	})
}

func runTimeline(ctx context.Context, g *globalFlags, _ *commandFlags, _ []string) error {
	return withClient(ctx, g, func(c *concrnt.Client) error {
		created, err := c.EnsureHomeTimeline(ctx)
		if err != nil {
			return err
		}
		if created {
			fmt.Println("已创建主时间线")
		} else {
			fmt.Println("主时间线已存在")
		}
		return nil
	})
}

// ============================================================================
//                              辅助函数
// ============================================================================

// openStore 打开配置指定的加密身份存储
func openStore(cfg *config.Config) (interfaces.SecureStore, error) {
	if cfg.Identity.StorePath == "" {
		return nil, errors.New("未指定身份存储（--store 或 identity.store_path）")
	}
	passphrase := os.Getenv(cfg.Identity.PassphraseEnv)
	if passphrase == "" {
		return nil, fmt.Errorf("环境变量 %s 未设置", cfg.Identity.PassphraseEnv)
	}
	return securestore.NewFile(cfg.Identity.StorePath, passphrase)
}

// withClient 创建客户端执行 fn 后关闭
//
// 指定了身份存储时从存储恢复会话，否则以访客身份运行。
func withClient(ctx context.Context, g *globalFlags, fn func(c *concrnt.Client) error) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}

	var client *concrnt.Client
	switch {
	case g.guest || cfg.Identity.StorePath == "":
		client, err = concrnt.New(ctx, concrnt.WithConfig(cfg), concrnt.WithGuest())
	default:
		store, serr := openStore(cfg)
		if serr != nil {
			return serr
		}
		client, err = concrnt.Bootstrap(ctx, store, cfg.Host, concrnt.WithConfig(cfg))
	}
	if err != nil {
		return err
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			logger.Warn("关闭客户端失败", "error", cerr)
		}
	}()
	return fn(client)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
