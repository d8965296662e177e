package ai

import (
	"encoding/json"
	"errors"
	"strings"
)

var errInvalidJSON = errors.New("invalid JSON from provider")

// stripCodeFences 去掉模型常见的 ```json ... ``` 包裹。
func stripCodeFences(text string) string {
	cleaned := strings.ReplaceAll(text, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}

// ExtractJSON 从自由格式的模型输出中尽力恢复一个 JSON 对象。
// 策略：剥离代码围栏后直接解析；失败则取第一个 '{' 到最后一个 '}'
// 的子串再试；仍失败返回 nil。调用方必须把 nil 当作
// “改用固定回退内容”，绝不能因此崩溃。
func ExtractJSON(text string) map[string]interface{} {
	if text == "" {
		return nil
	}
	cleaned := stripCodeFences(text)

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(cleaned), &parsed); err == nil {
		return parsed
	}

	firstBrace := strings.Index(cleaned, "{")
	lastBrace := strings.LastIndex(cleaned, "}")
	if firstBrace == -1 || lastBrace == -1 || lastBrace <= firstBrace {
		return nil
	}

	parsed = nil
	if err := json.Unmarshal([]byte(cleaned[firstBrace:lastBrace+1]), &parsed); err != nil {
		return nil
	}
	return parsed
}
