package translation

// Chunker 文本分块器
type Chunker interface {
	Chunk(text string) []string
}

// fixedChunker 按固定字符数切分，不考虑词或句子边界
type fixedChunker struct {
	size int
}

// NewFixedChunker 创建固定长度分块器
func NewFixedChunker(size int) Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	return &fixedChunker{size: size}
}

// Chunk 将文本切分为不超过 size 个字符的分块，拼接后与原文相同
func (c *fixedChunker) Chunk(text string) []string {
	if text == "" {
		return []string{}
	}

	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+c.size-1)/c.size)
	for start := 0; start < len(runes); start += c.size {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
