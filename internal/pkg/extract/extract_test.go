package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupportedExtension(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		want     bool
	}{
		{name: "txt 文件", fileName: "notes.txt", want: true},
		{name: "md 文件", fileName: "README.md", want: true},
		{name: "pdf 文件", fileName: "report.pdf", want: true},
		{name: "大写扩展名", fileName: "NOTES.TXT", want: true},
		{name: "不支持的类型", fileName: "binary.exe", want: false},
		{name: "无扩展名", fileName: "Makefile", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SupportedExtension(tt.fileName))
		})
	}
}

func TestTextPlain(t *testing.T) {
	text, err := Text("a.txt", strings.NewReader("  line one\nline two  \n"))
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", text)
}

func TestTextMarkdown(t *testing.T) {
	text, err := Text("doc.md", strings.NewReader("# Title\n\nBody text."))
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nBody text.", text)
}

func TestTextRejectsUnsupported(t *testing.T) {
	_, err := Text("image.png", strings.NewReader("data"))
	assert.Error(t, err)
}

func TestTextRejectsEmpty(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "空文件", content: ""},
		{name: "仅空白", content: "   \n\t "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Text("empty.txt", strings.NewReader(tt.content))
			assert.Error(t, err)
		})
	}
}

func TestTextRejectsInvalidUTF8(t *testing.T) {
	_, err := Text("bad.txt", strings.NewReader("ok\xff\xfe"))
	assert.Error(t, err)
}

func TestTextRejectsBrokenPDF(t *testing.T) {
	_, err := Text("broken.pdf", strings.NewReader("not a pdf at all"))
	assert.Error(t, err)
}
