package types

// PositionedFragment PDF文本层中的一个带坐标的文本片段
// Y 轴向上增长，数值越大越靠近页面顶部
type PositionedFragment struct {
	Text  string  `json:"text"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Width float64 `json:"width"`
}

// SectionCategory 简历章节类别，集合是封闭的
type SectionCategory string

const (
	// SectionSummary 个人简介
	SectionSummary SectionCategory = "summary"
	// SectionExperience 工作经历
	SectionExperience SectionCategory = "experience"
	// SectionEducation 教育经历
	SectionEducation SectionCategory = "education"
	// SectionSkills 技能
	SectionSkills SectionCategory = "skills"
	// SectionCertifications 证书
	SectionCertifications SectionCategory = "certifications"
	// SectionLanguages 语言能力
	SectionLanguages SectionCategory = "languages"
	// SectionProjects 项目经历
	SectionProjects SectionCategory = "projects"
	// SectionAwards 获奖
	SectionAwards SectionCategory = "awards"
	// SectionVolunteer 志愿者经历
	SectionVolunteer SectionCategory = "volunteer"
	// SectionInterests 兴趣爱好
	SectionInterests SectionCategory = "interests"
	// SectionReferences 推荐人
	SectionReferences SectionCategory = "references"
)

// AllSectionCategories 按固定顺序列出所有章节类别
var AllSectionCategories = []SectionCategory{
	SectionSummary,
	SectionExperience,
	SectionEducation,
	SectionSkills,
	SectionCertifications,
	SectionLanguages,
	SectionProjects,
	SectionAwards,
	SectionVolunteer,
	SectionInterests,
	SectionReferences,
}

// DetectedSection 一个绑定到章节类别的行区间
// StartLine 是标题行下标，EndLine 为开区间上界，Lines 不包含标题行本身
type DetectedSection struct {
	Category  SectionCategory `json:"category"`
	StartLine int             `json:"startLine"`
	EndLine   int             `json:"endLine"`
	Lines     []string        `json:"lines"`
}

// ParsedExperience 一段工作经历，日期保留原文
type ParsedExperience struct {
	Position    string `json:"position"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Description string `json:"description"`
}

// ParsedEducation 一段教育经历
type ParsedEducation struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Field       string `json:"field"`
	EndDate     string `json:"endDate"`
}

// SkillGroup 技能行上 "Category:" 标签及其条目
type SkillGroup struct {
	Category string   `json:"category"`
	Items    []string `json:"items"`
}

// ParsedResume 解析输出。所有切片字段保证非nil
type ParsedResume struct {
	FullName       string             `json:"fullName"`
	Email          string             `json:"email"`
	Phone          string             `json:"phone"`
	Location       string             `json:"location"`
	Website        string             `json:"website"`
	LinkedIn       string             `json:"linkedin"`
	GitHub         string             `json:"github"`
	JobTitle       string             `json:"jobTitle"`
	Summary        string             `json:"summary"`
	Experience     []ParsedExperience `json:"experience"`
	Education      []ParsedEducation  `json:"education"`
	Skills         []string           `json:"skills"`
	Languages      []string           `json:"languages"`
	Certifications []string           `json:"certifications"`
	RawText        string             `json:"rawText"`
}

// NewEmptyResume 返回所有字段均为中性默认值的结果
func NewEmptyResume(rawText string) *ParsedResume {
	return &ParsedResume{
		Experience:     []ParsedExperience{},
		Education:      []ParsedEducation{},
		Skills:         []string{},
		Languages:      []string{},
		Certifications: []string{},
		RawText:        rawText,
	}
}

// ParseRequestMessage 异步解析任务消息 (RabbitMQ)
type ParseRequestMessage struct {
	SubmissionUUID string `json:"submission_uuid"`
	OriginalObject string `json:"original_object"`
	FileName       string `json:"file_name"`
	Source         string `json:"source"`
	SubmittedAt    string `json:"submitted_at"`
}

// CachedParse 缓存条目，解析报告需要的字段和简历一起保存
type CachedParse struct {
	Resume             *ParsedResume     `json:"resume"`
	LineCount          int               `json:"lineCount"`
	Sections           []SectionCategory `json:"sections"`
	ExperienceFallback bool              `json:"experienceFallback"`
	SkillsFallback     bool              `json:"skillsFallback"`
}

// ResumeParsedEvent 解析完成事件，经 outbox 发布
type ResumeParsedEvent struct {
	SubmissionUUID    string `json:"submission_uuid"`
	Source            string `json:"source"`
	TextMD5           string `json:"text_md5"`
	FullName          string `json:"full_name"`
	Email             string `json:"email"`
	ExperienceCount   int    `json:"experience_count"`
	EducationCount    int    `json:"education_count"`
	SkillCount        int    `json:"skill_count"`
	UsedFallback      bool   `json:"used_fallback"`
	ParserVersion     string `json:"parser_version"`
	ParsedAtTimestamp string `json:"parsed_at"`
}
