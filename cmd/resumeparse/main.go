package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	appconfig "github.com/induwarapathirana/cv-creator-sub000/internal/config"
	"github.com/induwarapathirana/cv-creator-sub000/internal/logger"
	"github.com/induwarapathirana/cv-creator-sub000/internal/parser"
	"github.com/induwarapathirana/cv-creator-sub000/internal/processor"
	"github.com/induwarapathirana/cv-creator-sub000/internal/types"
)

// 命令行参数定义
var (
	pdfFilePath  = pflag.String("pdf", "", "PDF简历文件路径")
	textFilePath = pflag.String("text", "", "纯文本简历路径，- 表示标准输入")
	configPath   = pflag.StringP("config", "c", "", "配置文件路径，用于读取解析器设置")
	outPath      = pflag.StringP("out", "o", "", "结果输出文件，默认写到标准输出")
	analyze      = pflag.Bool("analyze", false, "输出行、分段和技能分组等中间结果")
	positioned   = pflag.Bool("positioned", true, "优先使用坐标片段重建行")
	verbose      = pflag.BoolP("verbose", "v", false, "输出调试日志")
	linesOnly    = pflag.Bool("lines", false, "只输出PDF坐标重建后的逻辑行，不解析")
	sectionName  = pflag.String("section", "", "只输出指定类别章节的正文，如 experience")
)

// output 命令输出
type output struct {
	*processor.ImportResult
	Analysis *parser.Analysis `json:"analysis,omitempty"`
}

func main() {
	pflag.Parse()

	if (*pdfFilePath == "") == (*textFilePath == "") {
		fmt.Fprintln(os.Stderr, "错误: 必须且只能提供 --pdf 或 --text 之一")
		pflag.Usage()
		os.Exit(2)
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	log := logger.New(logger.Config{Level: level, Format: "pretty"}, os.Stderr)

	cfg, err := appconfig.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("加载配置失败")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if *linesOnly {
		if *pdfFilePath == "" {
			log.Fatal().Msg("--lines 只支持 --pdf")
		}
		lines, err := parser.NewPDFFragmentExtractor(parser.WithFragmentLogger(log)).ExtractLinesFromFile(ctx, *pdfFilePath)
		if err != nil {
			log.Fatal().Err(err).Msg("重建逻辑行失败")
		}
		if err := writeJSON(*outPath, lines); err != nil {
			log.Fatal().Err(err).Msg("写出结果失败")
		}
		return
	}

	svc, p, err := buildService(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("初始化解析服务失败")
	}

	start := time.Now()
	res, err := run(ctx, svc)
	if err != nil {
		log.Fatal().Err(err).Msg("解析失败")
	}
	log.Debug().Dur("elapsed", time.Since(start)).Str("method", res.Report.ExtractMethod).Msg("解析完成")

	var out interface{} = output{ImportResult: res}
	switch {
	case *sectionName != "":
		a := p.Analyze(res.Resume.RawText)
		sec, ok := parser.FindSection(a.Sections, types.SectionCategory(*sectionName))
		if !ok {
			log.Fatal().Str("section", *sectionName).Msg("未检测到该章节")
		}
		out = sec
	case *analyze:
		out = output{ImportResult: res, Analysis: p.Analyze(res.Resume.RawText)}
	}
	if err := writeJSON(*outPath, out); err != nil {
		log.Fatal().Err(err).Msg("写出结果失败")
	}
}

// buildService 组装不依赖外部存储的导入服务
func buildService(ctx context.Context, cfg *appconfig.Config, log zerolog.Logger) (*processor.ImportService, *parser.HeuristicParser, error) {
	dict, err := parser.NewSkillDictionary(cfg.Parser.ExtraSkills...)
	if err != nil {
		return nil, nil, err
	}
	p := parser.NewHeuristicParser(parser.WithParserLogger(log), parser.WithSkillDictionary(dict))

	compOpts := []processor.ComponentOpt{
		processor.WithParser(p),
		processor.WithFragmentExtractor(parser.NewPDFFragmentExtractor(parser.WithFragmentLogger(log))),
	}
	flat, err := parser.NewEinoPDFTextExtractor(ctx, parser.WithEinoLogger(log))
	if err != nil {
		log.Warn().Err(err).Msg("Eino PDF提取器不可用")
	} else {
		compOpts = append(compOpts, processor.WithTextExtractor(flat))
	}

	svc := processor.CreateImportService(compOpts, []processor.SettingOpt{
		processor.WithLogger(log),
		processor.WithParserVersion(cfg.Parser.Version),
		processor.WithPreferPositioned(*positioned),
		processor.WithExtractTimeout(appconfig.GetDuration(cfg.Parser.ExtractTimeout, 30*time.Second)),
	})
	return svc, p, nil
}

func run(ctx context.Context, svc *processor.ImportService) (*processor.ImportResult, error) {
	if *pdfFilePath != "" {
		absPath, err := filepath.Abs(*pdfFilePath)
		if err != nil {
			return nil, fmt.Errorf("无法获取文件的绝对路径: %w", err)
		}
		data, err := os.ReadFile(absPath)
		if err != nil {
			return nil, fmt.Errorf("读取文件 %s 失败: %w", absPath, err)
		}
		return svc.ImportPDF(ctx, processor.ImportRequest{
			FileName: filepath.Base(absPath),
			Data:     data,
			Source:   "cli",
		})
	}

	var (
		data []byte
		err  error
	)
	if *textFilePath == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(*textFilePath)
	}
	if err != nil {
		return nil, fmt.Errorf("读取文本失败: %w", err)
	}
	return svc.ImportText(ctx, processor.TextRequest{
		Text:     string(data),
		Source:   "cli",
		FileName: filepath.Base(*textFilePath),
	})
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("JSON序列化失败: %w", err)
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
