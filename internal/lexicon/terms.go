package lexicon

import (
	"wisefido-careguard/internal/models"
)

// 内置触发词表（按语言和分类）
//
// 重要：词表不可能完整，只覆盖护理日常中最常见的表达。
// 不变量：同一语言内一个词只映射到一个分类。
// 威胁类表达（umbringen, messer 等）归入 EMERGENCY —— 与身体暴力同级。

var germanTerms = map[string]models.Category{
	// 无害（典型痴呆语言）
	"dumm": models.CategoryHarmless, "doof": models.CategoryHarmless,
	"blöd": models.CategoryHarmless, "idiot": models.CategoryHarmless,
	"depp": models.CategoryHarmless, "trottel": models.CategoryHarmless,
	"schwachkopf": models.CategoryHarmless, "dummkopf": models.CategoryHarmless,
	"dumme kuh": models.CategoryHarmless,
	// 粗俗
	"scheiße": models.CategoryVulgar, "scheisse": models.CategoryVulgar,
	"kacke": models.CategoryVulgar, "mist": models.CategoryVulgar,
	"verdammt": models.CategoryVulgar, "piss": models.CategoryVulgar,
	"arsch": models.CategoryVulgar, "arschloch": models.CategoryVulgar,
	// 严重 - 性化言语
	"fotze": models.CategoryCritical, "fick": models.CategoryCritical,
	"bumsen": models.CategoryCritical, "vögeln": models.CategoryCritical,
	"schwanz": models.CategoryCritical, "pimmel": models.CategoryCritical,
	"titten": models.CategoryCritical, "möse": models.CategoryCritical,
	"muschi": models.CategoryCritical, "wichsen": models.CategoryCritical,
	"nutte": models.CategoryCritical, "hure": models.CategoryCritical,
	"schlampe": models.CategoryCritical, "flittchen": models.CategoryCritical,
	// 紧急 - 身体暴力
	"geschlagen": models.CategoryEmergency, "getreten": models.CategoryEmergency,
	"gebissen": models.CategoryEmergency, "gekratzt": models.CategoryEmergency,
	"gewürgt": models.CategoryEmergency, "gestoßen": models.CategoryEmergency,
	"gespuckt": models.CategoryEmergency, "geboxt": models.CategoryEmergency,
	"attacke": models.CategoryEmergency, "angriff": models.CategoryEmergency,
	"verletzt": models.CategoryEmergency, "blutung": models.CategoryEmergency,
	"prellung": models.CategoryEmergency, "hämatom": models.CategoryEmergency,
	// 紧急 - 威胁
	"umbringen": models.CategoryEmergency, "töten": models.CategoryEmergency,
	"abstechen": models.CategoryEmergency, "erwürgen": models.CategoryEmergency,
	"messer": models.CategoryEmergency, "waffe": models.CategoryEmergency,
	"bring dich um": models.CategoryEmergency, "das bereust du": models.CategoryEmergency,
}

var englishTerms = map[string]models.Category{
	"stupid": models.CategoryHarmless, "dumb": models.CategoryHarmless,
	"fool": models.CategoryHarmless, "idiot": models.CategoryHarmless,
	"moron": models.CategoryHarmless,
	"shit": models.CategoryVulgar, "crap": models.CategoryVulgar,
	"damn": models.CategoryVulgar, "fuck": models.CategoryVulgar,
	"asshole": models.CategoryVulgar, "bastard": models.CategoryVulgar,
	"slut": models.CategoryCritical, "whore": models.CategoryCritical,
	"bitch": models.CategoryCritical, "tits": models.CategoryCritical,
	"cock": models.CategoryCritical, "pussy": models.CategoryCritical,
	"cunt": models.CategoryCritical,
	"struck": models.CategoryEmergency, "kicked": models.CategoryEmergency,
	"bit": models.CategoryEmergency, "scratched": models.CategoryEmergency,
	"strangled": models.CategoryEmergency, "pushed": models.CategoryEmergency,
	"punched": models.CategoryEmergency, "spat": models.CategoryEmergency,
	"attacked": models.CategoryEmergency, "injured": models.CategoryEmergency,
	"bleeding": models.CategoryEmergency, "bruise": models.CategoryEmergency,
	"knife": models.CategoryEmergency, "weapon": models.CategoryEmergency,
	"kill you": models.CategoryEmergency,
}

var turkishTerms = map[string]models.Category{
	"aptal": models.CategoryHarmless, "salak": models.CategoryHarmless,
	"gerizekalı": models.CategoryHarmless,
	"kahretsin": models.CategoryVulgar, "bok": models.CategoryVulgar,
	"lanet": models.CategoryVulgar,
	"orospu": models.CategoryCritical, "kahpe": models.CategoryCritical,
	"sürtük": models.CategoryCritical, "yarrak": models.CategoryCritical,
	"siktir": models.CategoryCritical, "amcık": models.CategoryCritical,
	"vurdu": models.CategoryEmergency, "tekmeledi": models.CategoryEmergency,
	"ısırdı": models.CategoryEmergency, "tırmaladı": models.CategoryEmergency,
	"boğdu": models.CategoryEmergency, "itti": models.CategoryEmergency,
	"tükürdü": models.CategoryEmergency, "bıçak": models.CategoryEmergency,
	"saldırı": models.CategoryEmergency, "yaralandı": models.CategoryEmergency,
	"öldürürüm seni": models.CategoryEmergency,
}

var polishTerms = map[string]models.Category{
	"głupi": models.CategoryHarmless, "idiota": models.CategoryHarmless,
	"debil": models.CategoryHarmless,
	"cholera": models.CategoryVulgar, "gówno": models.CategoryVulgar,
	"kurde": models.CategoryVulgar,
	"kurwa": models.CategoryCritical, "pizda": models.CategoryCritical,
	"chuj": models.CategoryCritical, "jebać": models.CategoryCritical,
	"pierdolić": models.CategoryCritical, "dziwka": models.CategoryCritical,
	"cipka": models.CategoryCritical,
	"uderzył": models.CategoryEmergency, "kopnął": models.CategoryEmergency,
	"ugryzł": models.CategoryEmergency, "podrapał": models.CategoryEmergency,
	"dusił": models.CategoryEmergency, "popchnął": models.CategoryEmergency,
	"opluł": models.CategoryEmergency, "nóż": models.CategoryEmergency,
	"zabiję": models.CategoryEmergency, "zraniony": models.CategoryEmergency,
}

// 阿拉伯语（拉丁转写，与转写服务输出一致）
var arabicTerms = map[string]models.Category{
	"ahbal": models.CategoryHarmless, "ghabi": models.CategoryHarmless,
	"kalb": models.CategoryVulgar, "hmar": models.CategoryVulgar,
	"tozz": models.CategoryVulgar,
	"sharmoota": models.CategoryCritical, "kuss": models.CategoryCritical,
	"nik": models.CategoryCritical, "zeb": models.CategoryCritical,
	"ayar": models.CategoryCritical,
	"darab": models.CategoryEmergency, "rafas": models.CategoryEmergency,
	"kharmash": models.CategoryEmergency, "khanaq": models.CategoryEmergency,
	"dafaa": models.CategoryEmergency, "sikkin": models.CategoryEmergency,
	"aqtulak": models.CategoryEmergency,
}

var frenchTerms = map[string]models.Category{
	"idiot": models.CategoryHarmless, "imbécile": models.CategoryHarmless,
	"crétin": models.CategoryHarmless, "bête": models.CategoryHarmless,
	"merde": models.CategoryVulgar, "zut": models.CategoryVulgar,
	"connard": models.CategoryVulgar,
	"putain": models.CategoryCritical, "salope": models.CategoryCritical,
	"pute": models.CategoryCritical, "enculé": models.CategoryCritical,
	"bite": models.CategoryCritical, "nichons": models.CategoryCritical,
	"frappé": models.CategoryEmergency, "battu": models.CategoryEmergency,
	"mordu": models.CategoryEmergency, "griffé": models.CategoryEmergency,
	"étranglé": models.CategoryEmergency, "poussé": models.CategoryEmergency,
	"craché": models.CategoryEmergency, "couteau": models.CategoryEmergency,
	"attaque": models.CategoryEmergency, "blessé": models.CategoryEmergency,
	"je vais te tuer": models.CategoryEmergency,
}

var spanishTerms = map[string]models.Category{
	"tonto": models.CategoryHarmless, "estúpido": models.CategoryHarmless,
	"bobo": models.CategoryHarmless, "idiota": models.CategoryHarmless,
	"mierda": models.CategoryVulgar, "joder": models.CategoryVulgar,
	"maldito": models.CategoryVulgar, "cabrón": models.CategoryVulgar,
	"puta": models.CategoryCritical, "zorra": models.CategoryCritical,
	"coño": models.CategoryCritical, "polla": models.CategoryCritical,
	"tetas": models.CategoryCritical,
	"golpeó": models.CategoryEmergency, "pateó": models.CategoryEmergency,
	"mordió": models.CategoryEmergency, "arañó": models.CategoryEmergency,
	"estranguló": models.CategoryEmergency, "empujó": models.CategoryEmergency,
	"escupió": models.CategoryEmergency, "cuchillo": models.CategoryEmergency,
	"herido": models.CategoryEmergency, "sangrado": models.CategoryEmergency,
	"te voy a matar": models.CategoryEmergency,
}

var languageTerms = map[models.LanguageCode]map[string]models.Category{
	models.LanguageGerman:  germanTerms,
	models.LanguageEnglish: englishTerms,
	models.LanguageTurkish: turkishTerms,
	models.LanguagePolish:  polishTerms,
	models.LanguageArabic:  arabicTerms,
	models.LanguageFrench:  frenchTerms,
	models.LanguageSpanish: spanishTerms,
}

// buildGenericTerms 构建语言无关的回退词表
// 规则：合并所有语言的 CRITICAL/EMERGENCY 词，剔除过短的词
// （短词跨语言歧义大，如土耳其语 "am"），分类冲突时取最大分类
func buildGenericTerms() map[string]models.Category {
	generic := make(map[string]models.Category)
	for _, terms := range languageTerms {
		for term, cat := range terms {
			if cat < models.CategoryCritical {
				continue
			}
			if len([]rune(term)) < 4 {
				continue
			}
			if existing, ok := generic[term]; !ok || cat > existing {
				generic[term] = cat
			}
		}
	}
	return generic
}
