// Package textsplit 提供递归字符分割器，按自然边界将长文本切分为
// 适合嵌入的块。
package textsplit

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// 默认分隔符，从大到小的自然边界。
var defaultSeparators = []string{
	"\n\n", // 段落
	"\n",   // 行
	". ",   // 句子
	"! ",   // 句子
	"? ",   // 句子
	"; ",   // 子句
	", ",   // 短语
	" ",    // 单词
	"",     // 字符
}

// Splitter 递归字符分割器。按分隔符优先级递归分割，再贪心合并到
// chunkSize（以 rune 计数），相邻块之间保留 overlap 的重叠。
type Splitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// New 创建分割器。chunkSize <= 0 时使用 1000，overlap < 0 时使用 200。
// overlap 不小于 chunkSize 时取 chunkSize/2。
func New(chunkSize, chunkOverlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 {
		chunkOverlap = 200
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 2
	}
	return &Splitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   defaultSeparators,
	}
}

// ChunkSize 返回块大小上限。
func (s *Splitter) ChunkSize() int { return s.chunkSize }

// ChunkOverlap 返回块重叠大小。
func (s *Splitter) ChunkOverlap() int { return s.chunkOverlap }

// Split 分割文本。输入为空或仅含空白时返回错误。
func (s *Splitter) Split(text string) ([]string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("empty text")
	}

	chunks := s.splitRecursive(trimmed, s.separators)

	// 去除空块
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if strings.TrimSpace(c) != "" {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no chunks produced")
	}
	return out, nil
}

// splitRecursive 递归分割实现。
func (s *Splitter) splitRecursive(text string, separators []string) []string {
	finalChunks := make([]string, 0)

	// 选择当前文本中出现的最高优先级分隔符
	separator := separators[len(separators)-1]
	var newSeparators []string
	for i, sep := range separators {
		if sep == "" {
			separator = sep
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			newSeparators = separators[i+1:]
			break
		}
	}

	var splits []string
	if separator == "" {
		splits = s.hardCut(text)
	} else {
		splits = strings.Split(text, separator)
	}

	// 小块累积合并，大块递归下钻
	goodSplits := make([]string, 0)
	for _, split := range splits {
		if utf8.RuneCountInString(split) < s.chunkSize {
			goodSplits = append(goodSplits, split)
			continue
		}

		if len(goodSplits) > 0 {
			finalChunks = append(finalChunks, s.mergeSplits(goodSplits, separator)...)
			goodSplits = goodSplits[:0]
		}

		if len(newSeparators) == 0 {
			finalChunks = append(finalChunks, s.hardCut(split)...)
		} else {
			finalChunks = append(finalChunks, s.splitRecursive(split, newSeparators)...)
		}
	}
	if len(goodSplits) > 0 {
		finalChunks = append(finalChunks, s.mergeSplits(goodSplits, separator)...)
	}

	return finalChunks
}

// hardCut 按 rune 窗口强制切分没有任何自然边界的文本。
func (s *Splitter) hardCut(text string) []string {
	runes := []rune(text)
	if len(runes) <= s.chunkSize {
		return []string{text}
	}

	step := s.chunkSize - s.chunkOverlap
	if step <= 0 {
		step = s.chunkSize
	}

	chunks := make([]string, 0, (len(runes)+step-1)/step)
	for start := 0; start < len(runes); start += step {
		end := start + s.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// mergeSplits 将分割片段贪心合并到 chunkSize 以内，并保留重叠窗口。
func (s *Splitter) mergeSplits(splits []string, separator string) []string {
	separatorLen := utf8.RuneCountInString(separator)

	docs := make([]string, 0)
	currentDoc := make([]string, 0)
	total := 0

	for _, split := range splits {
		length := utf8.RuneCountInString(split)

		if total+length+len(currentDoc)*separatorLen > s.chunkSize {
			if len(currentDoc) > 0 {
				if doc := joinDocs(currentDoc, separator); doc != "" {
					docs = append(docs, doc)
				}

				// 收缩窗口直到满足重叠约束
				for total > s.chunkOverlap || (total+length+len(currentDoc)*separatorLen > s.chunkSize && total > 0) {
					total -= utf8.RuneCountInString(currentDoc[0]) + separatorLen
					currentDoc = currentDoc[1:]
				}
			}
		}

		currentDoc = append(currentDoc, split)
		total += length + separatorLen
	}

	if len(currentDoc) > 0 {
		if doc := joinDocs(currentDoc, separator); doc != "" {
			docs = append(docs, doc)
		}
	}

	return docs
}

func joinDocs(docs []string, separator string) string {
	return strings.TrimSpace(strings.Join(docs, separator))
}
