// Package main 提供 concrnt 命令行入口
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/dep2p/go-concrnt"
	"github.com/dep2p/go-concrnt/config"
	"github.com/dep2p/go-concrnt/pkg/lib/log"
)

var logger = log.Logger("concrnt/cmd")

// globalFlags 所有子命令共享的参数
//
// 优先级（从高到低）：命令行参数 > 配置文件 > 默认值。
type globalFlags struct {
	configFile string
	host       string
	storePath  string
	dataDir    string
	guest      bool
	timeout    time.Duration
}

func (g *globalFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&g.configFile, "config", "c", "", "配置文件路径（.json / .jsonc / .yaml）")
	fs.StringVar(&g.host, "host", "", "默认服务器域名")
	fs.StringVar(&g.storePath, "store", "", "加密身份存储文件（覆盖配置中的 identity.store_path）")
	fs.StringVar(&g.dataDir, "data-dir", "", "持久化缓存目录（设置后启用 badger 缓存）")
	fs.BoolVar(&g.guest, "guest", false, "以访客身份运行")
	fs.DurationVar(&g.timeout, "timeout", 30*time.Second, "整个命令的超时")
}

// commandFlags 子命令参数，各命令只注册自己用到的部分
type commandFlags struct {
	save   bool
	hint   string
	domain string
	cache  string
}

// command 子命令
type command struct {
	name    string
	usage   string
	summary string
	flags   func(fs *pflag.FlagSet, f *commandFlags)
	run     func(ctx context.Context, g *globalFlags, f *commandFlags, args []string) error
}

var commands = []command{
	{"keygen", "keygen [--save]", "生成新身份", saveFlag, runKeygen},
	{"address", "address", "显示存储中的实体地址", nil, runAddress},
	{"server", "server [domain]", "显示服务描述", nil, runServer},
	{"entity", "entity <ccid> [--hint domain]", "显示实体记录", hintFlag, runEntity},
	{"get", "get <uri> [--domain d] [--cache mode]", "读取资源", getFlags, runGet},
	{"commit", "commit <file.json> [--domain d]", "签名并提交文档", domainFlag, runCommit},
	{"affiliate", "affiliate [domain]", "声明归属服务器", nil, runAffiliate},
	{"timeline", "timeline", "确保主时间线存在", nil, runTimeline},
	{"logout", "logout", "删除存储中的身份", nil, runLogout},
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run(argv []string) error {
	if len(argv) == 0 {
		printHelp()
		return nil
	}
	switch argv[0] {
	case "-h", "--help", "help":
		printHelp()
		return nil
	case "--version", "version":
		fmt.Println(concrnt.VersionInfo())
		return nil
	}

	cmd, ok := lookup(argv[0])
	if !ok {
		printHelp()
		return fmt.Errorf("未知命令 %q", argv[0])
	}

	var g globalFlags
	var f commandFlags
	fs := pflag.NewFlagSet("concrnt "+cmd.name, pflag.ContinueOnError)
	g.register(fs)
	if cmd.flags != nil {
		cmd.flags(fs, &f)
	}
	if err := fs.Parse(argv[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			fmt.Printf("用法: concrnt %s\n\n", cmd.usage)
			fs.PrintDefaults()
			return nil
		}
		return err
	}

	ctx, cancel := signalContext(g.timeout)
	defer cancel()

	logger.Debug("执行命令", "command", cmd.name)
	return cmd.run(ctx, &g, &f, fs.Args())
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

// signalContext 返回带超时、收到 SIGINT/SIGTERM 时取消的上下文
func signalContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, stop
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	return tctx, func() {
		cancel()
		stop()
	}
}

// loadConfig 读取配置文件并应用命令行覆盖
func (g *globalFlags) loadConfig() (*config.Config, error) {
	cfg := config.NewConfig()
	if g.configFile != "" {
		loaded, err := config.LoadFile(g.configFile)
		if err != nil {
			return nil, fmt.Errorf("加载配置文件失败: %w", err)
		}
		cfg = loaded
	}
	if g.storePath != "" {
		cfg.Identity.StorePath = g.storePath
	}
	if g.dataDir != "" {
		cfg.Storage.DataDir = g.dataDir
		cfg.Cache.Backend = config.CacheBackendBadger
	}
	if g.host != "" {
		cfg.Host = g.host
	}
	if err := config.ValidateAll(cfg); err != nil {
		return nil, fmt.Errorf("配置无效: %w", err)
	}
	return cfg, nil
}

func printHelp() {
	fmt.Println("concrnt - Concrnt 网络命令行客户端")
	fmt.Println()
	fmt.Println("用法: concrnt <命令> [参数]")
	fmt.Println()
	fmt.Println("命令:")
	for _, c := range commands {
		fmt.Printf("  %-42s %s\n", c.usage, c.summary)
	}
	fmt.Println()
	fmt.Println("全局参数:")
	var g globalFlags
	fs := pflag.NewFlagSet("concrnt", pflag.ContinueOnError)
	g.register(fs)
	fs.PrintDefaults()
	fmt.Println()
	fmt.Println("环境变量:")
	fmt.Println("  CONCRNT_PASSPHRASE    身份存储口令（变量名可在配置中修改）")
	fmt.Println("  CONCRNT_LOG_LEVEL     日志级别，例如 core/fetch=debug,warn")
	fmt.Println("  CONCRNT_LOG_FORMAT    text 或 json")
}
