package model

// EsChunk 定义了存储在 Elasticsearch 中的分块文档结构。
type EsChunk struct {
	VectorID     string    `json:"vector_id"` // origin + seq
	Origin       string    `json:"origin"`
	Seq          int       `json:"seq"`
	Start        int       `json:"start"`
	End          int       `json:"end"`
	TextContent  string    `json:"text_content"`
	Vector       []float32 `json:"vector"`
	ModelVersion string    `json:"model_version"`
}

// ToChunk 还原为内存中的 Chunk。
func (d EsChunk) ToChunk() Chunk {
	return Chunk{Seq: d.Seq, Origin: d.Origin, Text: d.TextContent, Start: d.Start, End: d.End}
}
