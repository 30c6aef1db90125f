package handlers

import (
	"net/http"
	"strconv"

	"github.com/Ca23187/easypan/services"
	"github.com/Ca23187/easypan/utils"

	"github.com/gin-gonic/gin"
)

// SubmitChunk 接收一个上传分片（multipart 表单）
func SubmitChunk(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		utils.Error(c, http.StatusUnauthorized, "未登录")
		return
	}

	fileName := c.PostForm("file_name")
	fileID := c.PostForm("file_id")
	contentHash := c.PostForm("content_hash")
	parentID, _ := strconv.ParseUint(c.DefaultPostForm("parent_id", "0"), 10, 32)
	chunkIndex, err := strconv.Atoi(c.PostForm("chunk_index"))
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "非法分片参数")
		return
	}
	chunkTotal, err := strconv.Atoi(c.PostForm("chunk_total"))
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "非法分片参数")
		return
	}

	chunk, header, err := c.Request.FormFile("chunk")
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "获取上传分片失败")
		return
	}
	defer chunk.Close()

	out, err := getServices().Upload.SubmitChunk(c.Request.Context(), userID, services.SubmitChunkInput{
		FileID:      fileID,
		FileName:    fileName,
		ParentID:    uint(parentID),
		ContentHash: contentHash,
		ChunkIndex:  chunkIndex,
		ChunkTotal:  chunkTotal,
		Chunk:       chunk,
		ChunkSize:   header.Size,
	})
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, out)
}
