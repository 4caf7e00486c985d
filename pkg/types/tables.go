package types

import "fmt"

type TableName string

func (s TableName) Name() string {
	return fmt.Sprintf("%s%s", TABLE_PREFIX, s)
}

const TABLE_PREFIX = "kh_"

const (
	TABLE_USER           = TableName("user")
	TABLE_LLM            = TableName("llm")
	TABLE_KNOWLEDGE_BASE = TableName("knowledge_base")
	TABLE_DOCUMENT       = TableName("document")
	TABLE_CHUNK          = TableName("chunk")
	TABLE_ASSISTANT      = TableName("assistant")
)
