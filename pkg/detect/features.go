package detect

import (
	"math"
	"regexp"
	"strings"
)

type keywordWeight struct {
	patterns []string
	weight   float64
}

var (
	questionMarkerRe = regexp.MustCompile(`问题\s*\d*\s*[:：]|问\s*[:：]|(?i)\bQ\s*\d*\s*[:：.]`)
	answerMarkerRe   = regexp.MustCompile(`答案\s*\d*\s*[:：]|答\s*[:：]|(?i)\bA\s*\d*\s*[:：.]`)
	questionMarkRe   = regexp.MustCompile(`[?？]`)
	qaKeywordRe      = regexp.MustCompile(`(?i)为什么|如何|什么是|怎么|\bfaq\b|\bwhat is\b|\bhow to\b|\bwhy\b`)

	arrowRe            = regexp.MustCompile(`->|→|=>`)
	structureEnglishRe = regexp.MustCompile(`(?i)\b(components?|architecture|modules?|dependenc(y|ies)|interfaces?|services?|layers?|subsystems?|microservices?)\b`)

	structureChineseKWs = keywordWeight{
		patterns: []string{"组件", "架构", "模块", "依赖", "接口", "系统", "服务", "分层", "调用", "部署", "数据流"},
		weight:   0.08,
	}

	numberedStepRe = regexp.MustCompile(`(?mi)^\s*(\d+\s*[.、)）]|第[一二三四五六七八九十\d]+步|step\s*\d+)`)
	flowEnglishRe  = regexp.MustCompile(`(?i)\b(install(ation)?|usage|getting started|tutorial|first|then|next|finally|run|configure)\b`)

	flowChineseKWs = keywordWeight{
		patterns: []string{"步骤", "安装", "使用", "首先", "然后", "接着", "最后", "教程", "入门", "配置", "运行"},
		weight:   0.05,
	}
)

func capScore(v float64) float64 {
	return math.Min(1.0, math.Max(0.0, v))
}

func countAll(content string, kw keywordWeight) float64 {
	total := 0
	for _, p := range kw.patterns {
		total += strings.Count(content, p)
	}
	return float64(total) * kw.weight
}

func countRe(re *regexp.Regexp, content string, weight float64) float64 {
	return float64(len(re.FindAllStringIndex(content, -1))) * weight
}

// DetectQA scores how much content reads like question/answer material.
func DetectQA(content string) float64 {
	if content == "" {
		return 0
	}
	score := countRe(questionMarkerRe, content, 0.15) +
		countRe(answerMarkerRe, content, 0.15) +
		countRe(questionMarkRe, content, 0.03) +
		countRe(qaKeywordRe, content, 0.04)
	return capScore(score)
}

// DetectStructure scores component/architecture vocabulary.
func DetectStructure(content string) float64 {
	if content == "" {
		return 0
	}
	score := countAll(content, structureChineseKWs) +
		countRe(structureEnglishRe, content, 0.08) +
		countRe(arrowRe, content, 0.05)
	return capScore(score)
}

// DetectFlow scores step-by-step / tutorial structure.
func DetectFlow(content string) float64 {
	if content == "" {
		return 0
	}
	score := countRe(numberedStepRe, content, 0.1) +
		countAll(content, flowChineseKWs) +
		countRe(flowEnglishRe, content, 0.05)
	return capScore(score)
}
