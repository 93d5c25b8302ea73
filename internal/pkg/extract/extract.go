// Package extract 从上传的文件中提取纯文本。
// 目前支持 .txt、.md 和 .pdf 三种类型。
package extract

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// 支持的文件扩展名。
var supportedExtensions = map[string]bool{
	".txt": true,
	".md":  true,
	".pdf": true,
}

// SupportedExtension 判断扩展名是否受支持。扩展名比较不区分大小写。
func SupportedExtension(fileName string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(fileName))]
}

// Extensions 返回受支持的扩展名列表。
func Extensions() []string {
	return []string{".txt", ".md", ".pdf"}
}

// Text 根据文件名选择提取器，返回提取出的纯文本。
// 提取结果为空或仅含空白时返回错误。
func Text(fileName string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))

	var text string
	var err error
	switch ext {
	case ".txt", ".md":
		text, err = plainText(r)
	case ".pdf":
		text, err = pdfText(r)
	default:
		return "", fmt.Errorf("unsupported file extension %q", ext)
	}
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("no text content in %s", fileName)
	}
	return text, nil
}

// plainText 读取并校验 UTF-8 文本。
func plainText(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("file is not valid UTF-8 text")
	}
	return string(data), nil
}
