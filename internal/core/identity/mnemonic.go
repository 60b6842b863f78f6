package identity

import (
	"strings"

	"github.com/tyler-smith/go-bip39/wordlists"
	"golang.org/x/text/unicode/norm"
)

// MnemonicWords 助记词数量
const MnemonicWords = 12

// japaneseSeparator 日文助记词输出分隔符，与英文一致使用普通空格
//
// 输入仍接受全角空格，见 splitMnemonic。
const japaneseSeparator = " "

// Language 助记词语言
type Language int

const (
	// English 英文词表
	English Language = iota
	// Japanese 日文词表
	Japanese
)

// wordIndex 词到序号的映射，键为 NFKD 形式
type wordIndex struct {
	words []string
	index map[string]int
}

func newWordIndex(words []string) *wordIndex {
	idx := &wordIndex{words: words, index: make(map[string]int, len(words))}
	for i, w := range words {
		idx.index[norm.NFKD.String(w)] = i
	}
	return idx
}

var (
	englishWords  = newWordIndex(wordlists.English)
	japaneseWords = newWordIndex(wordlists.Japanese)
)

// splitMnemonic 规范化并拆分助记词
//
// NFKD 会把全角空格折叠为普通空格，因此两种分隔符都可接受。
func splitMnemonic(mnemonic string) []string {
	return strings.Fields(norm.NFKD.String(strings.TrimSpace(mnemonic)))
}

// detectLanguage 按全部单词判断语言
func detectLanguage(words []string) (Language, bool) {
	if lookupAll(englishWords, words) {
		return English, true
	}
	if lookupAll(japaneseWords, words) {
		return Japanese, true
	}
	return English, false
}

func lookupAll(idx *wordIndex, words []string) bool {
	for _, w := range words {
		if _, ok := idx.index[w]; !ok {
			return false
		}
	}
	return true
}

// translate 按词表序号转换
func translate(words []string, from, to *wordIndex) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = to.words[from.index[w]]
	}
	return out
}

// ToEnglish 将助记词转换为英文写法
func ToEnglish(mnemonic string) (string, error) {
	words := splitMnemonic(mnemonic)
	if len(words) != MnemonicWords {
		return "", ErrWordCount
	}
	lang, ok := detectLanguage(words)
	if !ok {
		return "", ErrUnknownWord
	}
	if lang == Japanese {
		words = translate(words, japaneseWords, englishWords)
	}
	return strings.Join(words, " "), nil
}

// ToJapanese 将助记词转换为日文写法
func ToJapanese(mnemonic string) (string, error) {
	en, err := ToEnglish(mnemonic)
	if err != nil {
		return "", err
	}
	return strings.Join(translate(strings.Fields(en), englishWords, japaneseWords), japaneseSeparator), nil
}
