package parser

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/induwarapathirana/cv-creator-sub000/internal/types"
)

// HeuristicParser 基于规则的简历结构化解析器
// 不持有可变状态，可被多个 goroutine 同时使用
type HeuristicParser struct {
	logger zerolog.Logger
	skills *SkillDictionary
}

// HeuristicOption 解析器配置选项
type HeuristicOption func(*HeuristicParser)

// WithParserLogger 设置日志记录器，默认不输出
func WithParserLogger(logger zerolog.Logger) HeuristicOption {
	return func(p *HeuristicParser) {
		p.logger = logger
	}
}

// WithSkillDictionary 替换兜底使用的技能词典
func WithSkillDictionary(dict *SkillDictionary) HeuristicOption {
	return func(p *HeuristicParser) {
		if dict != nil {
			p.skills = dict
		}
	}
}

// NewHeuristicParser 创建解析器
func NewHeuristicParser(opts ...HeuristicOption) *HeuristicParser {
	p := &HeuristicParser{
		logger: zerolog.Nop(),
		skills: defaultSkillDictionary,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Analysis 解析结果及中间产物，便于排查
type Analysis struct {
	Resume             *types.ParsedResume     `json:"resume"`
	Lines              []string                `json:"lines"`
	Sections           []types.DetectedSection `json:"sections"`
	SkillGroups        []types.SkillGroup      `json:"skillGroups"`
	ExperienceFallback bool                    `json:"experienceFallback"`
	SkillsFallback     bool                    `json:"skillsFallback"`
}

// UsedFallback 是否触发过任一兜底策略
func (a *Analysis) UsedFallback() bool {
	return a.ExperienceFallback || a.SkillsFallback
}

func emptyAnalysis(text string) *Analysis {
	return &Analysis{
		Resume:      types.NewEmptyResume(text),
		Lines:       []string{},
		Sections:    []types.DetectedSection{},
		SkillGroups: []types.SkillGroup{},
	}
}

// ParseText 解析已经按行分好的纯文本
func (p *HeuristicParser) ParseText(text string) *types.ParsedResume {
	return p.Analyze(text).Resume
}

// ParsePages 先把每页的坐标片段重建成行，再解析
func (p *HeuristicParser) ParsePages(pages [][]types.PositionedFragment) *types.ParsedResume {
	return p.ParseText(strings.Join(ReconstructLines(pages), "\n"))
}

// Analyze 按固定顺序执行：身份提取、章节切分、各章节解析、兜底
// 任何情况下都返回完整结构，不向调用方抛出 panic
func (p *HeuristicParser) Analyze(text string) (result *Analysis) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().Str("panic", fmt.Sprint(r)).Int("text_length", len(text)).Msg("简历解析出现异常，返回空结果")
			result = emptyAnalysis(text)
		}
	}()

	a := emptyAnalysis(text)
	lines := splitLines(text)
	if len(lines) == 0 {
		return a
	}
	a.Lines = lines

	res := a.Resume
	id := ExtractIdentity(lines)
	res.FullName = id.FullName
	res.Email = id.Email
	res.Phone = id.Phone
	res.Location = id.Location
	res.Website = id.Website
	res.LinkedIn = id.LinkedIn
	res.GitHub = id.GitHub
	res.JobTitle = id.JobTitle

	a.Sections = SegmentSections(lines)
	for _, s := range a.Sections {
		switch s.Category {
		case types.SectionSummary:
			res.Summary = ParseSummary(s.Lines)
		case types.SectionExperience:
			res.Experience = ParseExperience(s.Lines)
		case types.SectionEducation:
			res.Education = ParseEducation(s.Lines)
		case types.SectionSkills:
			a.SkillGroups = ParseSkillGroups(s.Lines)
			res.Skills = flattenSkillGroups(a.SkillGroups)
		case types.SectionLanguages:
			res.Languages = ParseLanguages(s.Lines)
		case types.SectionCertifications:
			res.Certifications = ParseCertifications(s.Lines)
		}
	}

	if len(res.Experience) == 0 {
		a.ExperienceFallback = true
		res.Experience = FallbackExperience(lines)
		p.logger.Debug().Int("entries", len(res.Experience)).Msg("工作经历为空，使用全文日期扫描兜底")
	}
	if len(res.Skills) == 0 {
		a.SkillsFallback = true
		res.Skills = FallbackSkills(text, p.skills)
		p.logger.Debug().Int("skills", len(res.Skills)).Msg("技能为空，使用词典匹配兜底")
	}

	p.logger.Debug().
		Int("lines", len(lines)).
		Int("sections", len(a.Sections)).
		Int("experience", len(res.Experience)).
		Int("education", len(res.Education)).
		Int("skills", len(res.Skills)).
		Msg("简历解析完成")
	return a
}
