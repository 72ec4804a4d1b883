package parser

import (
	"fmt"
	"regexp"
	"strings"
)

// defaultSkillNames 兜底匹配用的技能词典，按输出顺序排列
// 过短或与常用英文词重合的名字（Go、R、C、Rest、Spring 等）不在表中
var defaultSkillNames = []string{
	// 编程语言
	"JavaScript", "TypeScript", "Python", "Java", "Kotlin", "Objective-C", "C++", "C#",
	"Ruby", "PHP", "Rust", "Scala", "Perl", "Elixir", "Haskell", "MATLAB", "Golang",
	"Clojure", "Groovy", "Bash", "PowerShell", "SQL", "HTML", "CSS", "Sass",
	// 前端
	"React", "Angular", "Vue.js", "Svelte", "Next.js", "Nuxt.js", "Redux", "jQuery",
	"Bootstrap", "Tailwind CSS", "Webpack", "React Native", "Flutter",
	// 后端
	"Node.js", "Express.js", "Django", "Flask", "FastAPI", "Spring Boot", "Ruby on Rails",
	"Laravel", "ASP.NET", ".NET", "GraphQL", "gRPC", "Microservices",
	// 数据
	"PostgreSQL", "MySQL", "SQLite", "MongoDB", "Redis", "Elasticsearch", "Cassandra",
	"DynamoDB", "SQL Server", "Kafka", "RabbitMQ", "Apache Spark", "Hadoop", "Airflow",
	"Snowflake", "BigQuery", "Pandas", "NumPy", "TensorFlow", "PyTorch", "Keras",
	"scikit-learn", "Tableau", "Power BI",
	// 云与运维
	"AWS", "Azure", "Google Cloud", "GCP", "Docker", "Kubernetes", "Terraform", "Ansible",
	"Jenkins", "GitHub Actions", "GitLab CI", "CircleCI", "Linux", "Nginx", "Git",
	"Prometheus", "Grafana", "Helm", "Firebase", "Heroku", "CI/CD",
	// 工具与方法
	"Jira", "Confluence", "Figma", "Photoshop", "Illustrator", "Agile", "Scrum", "Kanban",
	"TDD", "Selenium", "Cypress", "Jest", "JUnit", "Postman", "Android", "iOS",
	"Salesforce", "SAP", "Microsoft Excel",
}

type skillTerm struct {
	name    string
	pattern *regexp.Regexp
}

// SkillDictionary 编译好的只读技能词典，可并发使用
type SkillDictionary struct {
	terms []skillTerm
}

// NewSkillDictionary 以默认词典为基础，追加额外的条目（按规范写法去重）
func NewSkillDictionary(extra ...string) (*SkillDictionary, error) {
	d := &SkillDictionary{}
	seen := make(map[string]bool)
	for _, name := range append(append([]string{}, defaultSkillNames...), extra...) {
		name = strings.TrimSpace(name)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		re, err := compileSkillPattern(name)
		if err != nil {
			return nil, fmt.Errorf("编译技能词条 %q 失败: %w", name, err)
		}
		d.terms = append(d.terms, skillTerm{name: name, pattern: re})
	}
	return d, nil
}

// defaultSkillDictionary 默认词典，包初始化时编译
var defaultSkillDictionary = mustSkillDictionary()

func mustSkillDictionary() *SkillDictionary {
	d, err := NewSkillDictionary()
	if err != nil {
		panic(err)
	}
	return d
}

// Names 返回词典中的规范名称
func (d *SkillDictionary) Names() []string {
	names := make([]string, len(d.terms))
	for i, t := range d.terms {
		names[i] = t.name
	}
	return names
}

// compileSkillPattern 以"非字母数字"作为词边界，兼容 C++、.NET 这类带符号的名字
func compileSkillPattern(name string) (*regexp.Regexp, error) {
	return regexp.Compile(`(?i)(?:^|[^\p{L}\p{N}])` + regexp.QuoteMeta(name) + `(?:$|[^\p{L}\p{N}])`)
}
