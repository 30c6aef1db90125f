package services

import (
	"path/filepath"
	"strings"

	"github.com/Ca23187/easypan/models"

	"github.com/google/uuid"
)

type suffixType struct {
	fileType string
	category string
	suffixes []string
}

var suffixTypes = []suffixType{
	{"video", models.CategoryVideo, []string{".mp4", ".avi", ".rmvb", ".mkv", ".mov"}},
	{"music", models.CategoryMusic, []string{".mp3", ".wav", ".wma", ".mp2", ".ogg", ".ape", ".flac"}},
	{"image", models.CategoryImage, []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".dds", ".psd", ".svg", ".ico"}},
	{"pdf", models.CategoryDoc, []string{".pdf"}},
	{"word", models.CategoryDoc, []string{".doc", ".docx"}},
	{"excel", models.CategoryDoc, []string{".xls", ".xlsx"}},
	{"txt", models.CategoryDoc, []string{".txt"}},
	{"program", models.CategoryOthers, []string{".h", ".c", ".hpp", ".cpp", ".java", ".go", ".py", ".js", ".html", ".css", ".sql", ".sh", ".bat"}},
	{"zip", models.CategoryOthers, []string{".rar", ".zip", ".7z", ".cab", ".arj", ".tar", ".gz"}},
}

// classifyFile 根据扩展名确定分类和类型，未知扩展名归入 others
func classifyFile(fileName string) (category string, fileType string) {
	ext := strings.ToLower(filepath.Ext(fileName))
	for _, st := range suffixTypes {
		for _, suffix := range st.suffixes {
			if suffix == ext {
				return st.category, st.fileType
			}
		}
	}
	return models.CategoryOthers, "others"
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	replacer := strings.NewReplacer("..", "_", "/", "_", "\\", "_")
	return replacer.Replace(name)
}

// renameFileName 同目录重名时追加随机后缀：a.txt -> a_x3f9c.txt
func renameFileName(name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:5]
	return base + "_" + suffix + ext
}
