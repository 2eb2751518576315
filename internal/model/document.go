// Package model 定义了文档、分块与检索结果等核心数据结构。
package model

// Document 是加载器解析出的完整文本，分块后即被丢弃。
type Document struct {
	Origin string `json:"origin"` // 上传的文件名
	Text   string `json:"text"`
}

// Chunk 是文档中的一段连续文本，Start/End 为按字符（rune）计的偏移，Text 与 [Start, End) 完全一致。
type Chunk struct {
	Seq    int    `json:"seq"`
	Origin string `json:"origin"`
	Text   string `json:"text"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
}

// SearchResult 是一次向量检索的命中，Score 为余弦相似度，范围 [-1, 1]。
type SearchResult struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// IngestReport 汇总一次成功摄取的信息。
type IngestReport struct {
	Origin     string `json:"origin"`
	Runes      int    `json:"runes"`
	Chunks     int    `json:"chunks"`
	Dimensions int    `json:"dimensions"`
	Model      string `json:"model"`
	ElapsedMS  int64  `json:"elapsedMs"`
}
