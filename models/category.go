package models

// 文件分类，上传时根据扩展名确定
const (
	CategoryVideo  = "video"
	CategoryMusic  = "music"
	CategoryImage  = "image"
	CategoryDoc    = "doc"
	CategoryOthers = "others"
)
