package cleaning

import (
	"encoding/json"
	"strings"
)

// 归一化失败时的兜底对象字段值
const (
	FallbackStatus  = "error"
	FallbackMessage = "Could not parse LLM response"
)

// NormalizeSuggestion 尽力从生成器输出中提取结构化建议
//
// 三段式降级，首个成功者生效：
//  1. 整段文本按JSON对象解析
//  2. 取第一个'{'到最后一个'}'之间的子串解析
//  3. 返回带原始文本的兜底对象
//
// 上游是统计模型，输出不可靠是常态，所以这里从不报错，
// 任何解析失败都降级为兜底对象。
func NormalizeSuggestion(raw string) map[string]interface{} {
	var suggestion map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &suggestion); err == nil && suggestion != nil {
		return suggestion
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		var embedded map[string]interface{}
		if err := json.Unmarshal([]byte(raw[start:end+1]), &embedded); err == nil && embedded != nil {
			return embedded
		}
	}

	return map[string]interface{}{
		"status":       FallbackStatus,
		"message":      FallbackMessage,
		"raw_response": raw,
	}
}
