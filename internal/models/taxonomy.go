package models

// Category 触发词严重度分类（有序，低→高）
// 叙述文本的整体分类 = 所有命中分类的最大值
type Category int

const (
	CategoryHarmless  Category = iota // 无害（典型痴呆语言）
	CategoryVulgar                    // 粗俗（情绪化咒骂）
	CategoryCritical                  // 严重 - 性骚扰言语
	CategoryEmergency                 // 紧急 - 身体暴力/威胁
)

// String 返回分类的字符串表示（用于日志和持久化）
func (c Category) String() string {
	switch c {
	case CategoryHarmless:
		return "HARMLESS"
	case CategoryVulgar:
		return "VULGAR"
	case CategoryCritical:
		return "CRITICAL"
	case CategoryEmergency:
		return "EMERGENCY"
	default:
		return "UNKNOWN"
	}
}

// AlarmLevel 分类对应的报警级别
// NONE, INFO, WARNING, CRITICAL, EMERGENCY
func (c Category) AlarmLevel() string {
	switch c {
	case CategoryHarmless:
		return "NONE"
	case CategoryVulgar:
		return "INFO"
	case CategoryCritical:
		return "CRITICAL"
	case CategoryEmergency:
		return "EMERGENCY"
	default:
		return "NONE"
	}
}

// Reportable 是否需要创建事件案例（CRITICAL 及以上）
func (c Category) Reportable() bool {
	return c >= CategoryCritical
}

// Attribution 归因判断（言语源于认知障碍还是针对性行为）
type Attribution string

const (
	AttributionDementiaContext Attribution = "dementia_context" // 痴呆背景下的言语
	AttributionTargeted        Attribution = "targeted"         // 针对性/有意识行为
	AttributionUndetermined    Attribution = "undetermined"     // 数据不足，按 targeted 处理
)

// OrientationStatus 住户定向力状态
type OrientationStatus string

const (
	OrientationOriented          OrientationStatus = "oriented"
	OrientationPartiallyOriented OrientationStatus = "partially_oriented"
	OrientationDisoriented       OrientationStatus = "disoriented"
	OrientationUnknown           OrientationStatus = "unknown"
)

// LanguageCode 语言标签（来自转写服务的检测结果，如 "de", "tr"）
type LanguageCode string

const (
	LanguageGerman  LanguageCode = "de"
	LanguageEnglish LanguageCode = "en"
	LanguageTurkish LanguageCode = "tr"
	LanguagePolish  LanguageCode = "pl"
	LanguageArabic  LanguageCode = "ar" // 拉丁转写
	LanguageFrench  LanguageCode = "fr"
	LanguageSpanish LanguageCode = "es"
)
