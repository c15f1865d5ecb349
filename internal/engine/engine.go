package engine

import (
	"wisefido-careguard/internal/classifier"
	"wisefido-careguard/internal/lexicon"
	"wisefido-careguard/internal/models"
	"wisefido-careguard/internal/resolver"

	"go.uber.org/zap"
)

// Engine 文本分类流水线（词表匹配 → 上下文归因 → 严重度分类）
// 纯同步计算，输入不可变，无锁即可并发调用
type Engine struct {
	matcher    *lexicon.Matcher
	resolver   *resolver.Resolver
	classifier *classifier.Classifier
	logger     *zap.Logger
}

// NewEngine 创建分类引擎
func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{
		matcher:    lexicon.NewMatcher(),
		resolver:   resolver.NewResolver(),
		classifier: classifier.NewClassifier(),
		logger:     logger,
	}
}

// Analyze 对单条叙述执行完整分类
// 从不失败：未知语言回退到通用词表并降低置信度
func (e *Engine) Analyze(text string, lang models.LanguageCode, ctx models.ResidentContext) models.ClassificationResult {
	matches, languageKnown := e.matcher.Match(text, lang)
	resolved := e.resolver.Resolve(matches, ctx)
	result := e.classifier.Classify(resolved, ctx, languageKnown)

	e.logger.Debug("Narrative classified",
		zap.String("language", string(lang)),
		zap.Bool("language_known", languageKnown),
		zap.Int("match_count", len(matches)),
		zap.String("overall_category", result.OverallCategory.String()),
		zap.Bool("physical_injury_candidate", result.PhysicalInjuryCandidate),
	)

	return result
}
