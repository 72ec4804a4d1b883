package processor

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/induwarapathirana/cv-creator-sub000/internal/constants"
	"github.com/induwarapathirana/cv-creator-sub000/internal/storage"
	"github.com/induwarapathirana/cv-creator-sub000/internal/storage/models"
	"github.com/induwarapathirana/cv-creator-sub000/internal/types"
)

const testResume = `Jane Doe
Senior Software Engineer
jane.doe@example.com | +1 555 123 4567 | San Francisco, CA

Experience
Senior Software Engineer
Acme Corp
Jan 2020 - Present
- Built the ingestion pipeline in Go

Education
Stanford University
B.S. Computer Science
2012 - 2016

Skills
Go, Docker, Kubernetes`

// ----- fakes -----

type fakeFragments struct {
	pages [][]types.PositionedFragment
	err   error
}

func (f *fakeFragments) ExtractFragments(context.Context, []byte) ([][]types.PositionedFragment, error) {
	return f.pages, f.err
}

type fakeFlat struct {
	text string
	err  error
}

func (f *fakeFlat) ExtractTextFromBytes(context.Context, []byte, string) (string, error) {
	return f.text, f.err
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]*types.CachedParse
	firsts  map[string]string
	sets    int
	md5Err  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]*types.CachedParse{}, firsts: map[string]string{}}
}

func (c *fakeCache) GetParseResult(_ context.Context, version, md5 string) (*types.CachedParse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.entries[version+"/"+md5]; ok {
		return r, nil
	}
	return nil, storage.ErrNotFound
}

func (c *fakeCache) SetParseResult(_ context.Context, version, md5 string, res *types.CachedParse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[version+"/"+md5] = res
	c.sets++
	return nil
}

func (c *fakeCache) CheckAndSetTextMD5(_ context.Context, md5, id string) (bool, string, error) {
	if c.md5Err != nil {
		return false, "", c.md5Err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if first, ok := c.firsts[md5]; ok {
		return true, first, nil
	}
	c.firsts[md5] = id
	return false, "", nil
}

type fakeArchive struct {
	mu        sync.Mutex
	originals map[string][]byte
	rawTexts  map[string]string
	uploadErr error
	getErr    error
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{originals: map[string][]byte{}, rawTexts: map[string]string{}}
}

func (a *fakeArchive) UploadOriginal(_ context.Context, id, fileName string, data []byte) (string, error) {
	if a.uploadErr != nil {
		return "", a.uploadErr
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	name := storage.OriginalObjectName(id, fileName)
	a.originals[name] = data
	return name, nil
}

func (a *fakeArchive) UploadRawText(_ context.Context, id, text string) (string, error) {
	if a.uploadErr != nil {
		return "", a.uploadErr
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	name := storage.RawTextObjectName(id)
	a.rawTexts[name] = text
	return name, nil
}

func (a *fakeArchive) GetOriginal(_ context.Context, objectName string) ([]byte, error) {
	if a.getErr != nil {
		return nil, a.getErr
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	data, ok := a.originals[objectName]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return data, nil
}

type fakeRepo struct {
	mu        sync.Mutex
	imports   map[string]*models.ResumeImport
	outbox    []*models.OutboxMessage
	failed    map[string]string
	createErr error
	saveErr   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{imports: map[string]*models.ResumeImport{}, failed: map[string]string{}}
}

func (r *fakeRepo) CreateImport(_ context.Context, imp *models.ResumeImport) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.imports[imp.SubmissionUUID] = imp
	return nil
}

func (r *fakeRepo) CompleteImport(_ context.Context, imp *models.ResumeImport, msg *models.OutboxMessage) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.imports[imp.SubmissionUUID] = imp
	if msg != nil {
		r.outbox = append(r.outbox, msg)
	}
	return nil
}

func (r *fakeRepo) MarkImportFailed(_ context.Context, id, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed[id] = reason
	return nil
}

func (r *fakeRepo) GetImport(_ context.Context, id string) (*models.ResumeImport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	imp, ok := r.imports[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return imp, nil
}

func (r *fakeRepo) ListStaleImports(_ context.Context, version string, limit int) ([]models.ResumeImport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ResumeImport
	for _, imp := range r.imports {
		if imp.OriginalObject == "" {
			continue
		}
		if imp.Status == models.ImportStatusFailed || (imp.Status == models.ImportStatusParsed && imp.ParserVersion != version) {
			out = append(out, *imp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmissionUUID < out[j].SubmissionUUID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type publishedMessage struct {
	exchange, key string
	data          interface{}
}

type fakeQueue struct {
	mu         sync.Mutex
	published  []publishedMessage
	publishErr error
	consumers  int
}

func (q *fakeQueue) PublishJSON(_ context.Context, exchange, key string, data interface{}, _ bool) error {
	if q.publishErr != nil {
		return q.publishErr
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.published = append(q.published, publishedMessage{exchange, key, data})
	return nil
}

func (q *fakeQueue) StartConsumer(ctx context.Context, _ string, _ int, _ storage.MessageHandler) (<-chan struct{}, error) {
	q.mu.Lock()
	q.consumers++
	q.mu.Unlock()
	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		close(done)
	}()
	return done, nil
}

// ----- helpers -----

var fixedNow = time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)

func newTestService(compOpts []ComponentOpt, setOpts ...SettingOpt) *ImportService {
	setOpts = append([]SettingOpt{
		WithLogger(zerolog.Nop()),
		WithClock(func() time.Time { return fixedNow }),
		WithParseRequestRoute("resume.import.exchange", "resume.parse.requested", "q.resume_parse_requests", 4),
	}, setOpts...)
	return CreateImportService(compOpts, setOpts)
}

func positionedPages(lines ...string) [][]types.PositionedFragment {
	page := make([]types.PositionedFragment, 0, len(lines))
	for i, l := range lines {
		page = append(page, types.PositionedFragment{Text: l, X: 50, Y: 800 - float64(i)*14, Width: float64(len(l)) * 5})
	}
	return [][]types.PositionedFragment{page}
}

// ----- tests -----

func TestImportText_FullPipeline(t *testing.T) {
	cache := newFakeCache()
	archive := newFakeArchive()
	repo := newFakeRepo()
	svc := newTestService(
		[]ComponentOpt{WithCache(cache), WithArchive(archive), WithRepository(repo)},
		WithParsedEventRoute("resume.events.exchange", "resume.parsed"),
	)

	res, err := svc.ImportText(context.Background(), TextRequest{Text: testResume})
	require.NoError(t, err)
	require.NotNil(t, res.Resume)

	assert.False(t, res.Cached)
	assert.Equal(t, "Jane Doe", res.Resume.FullName)
	assert.Equal(t, "jane.doe@example.com", res.Resume.Email)
	assert.NotEmpty(t, res.Resume.Experience)
	assert.NotEmpty(t, res.Resume.Education)
	assert.Contains(t, res.Resume.Skills, "Go")

	assert.Equal(t, ExtractMethodText, res.Report.ExtractMethod)
	assert.Equal(t, constants.DefaultParserVer, res.Report.ParserVersion)
	assert.Len(t, res.Report.TextMD5, 32)
	assert.Contains(t, res.Report.Sections, types.SectionExperience)
	assert.Equal(t, "resume/"+res.SubmissionUUID+"/raw.txt", res.Report.RawTextObject)
	assert.Empty(t, res.Report.OriginalObject)

	imp, ok := repo.imports[res.SubmissionUUID]
	require.True(t, ok)
	assert.Equal(t, models.ImportStatusParsed, imp.Status)
	assert.Equal(t, constants.ImportSourceText, imp.Source)
	assert.Equal(t, fixedNow, imp.CreatedAt)

	require.Len(t, repo.outbox, 1)
	msg := repo.outbox[0]
	assert.Equal(t, constants.EventTypeResumeParsed, msg.EventType)
	assert.Equal(t, "resume.events.exchange", msg.TargetExchange)
	var event types.ResumeParsedEvent
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
	assert.Equal(t, res.SubmissionUUID, event.SubmissionUUID)
	assert.Equal(t, "Jane Doe", event.FullName)
	assert.Equal(t, len(res.Resume.Skills), event.SkillCount)

	assert.Equal(t, 1, cache.sets)
}

func TestImportText_CacheHit(t *testing.T) {
	cache := newFakeCache()
	svc := newTestService([]ComponentOpt{WithCache(cache)})

	first, err := svc.ImportText(context.Background(), TextRequest{Text: testResume})
	require.NoError(t, err)
	second, err := svc.ImportText(context.Background(), TextRequest{Text: testResume})
	require.NoError(t, err)

	assert.True(t, second.Cached)
	assert.NotEqual(t, first.SubmissionUUID, second.SubmissionUUID)
	assert.Equal(t, first.Report.TextMD5, second.Report.TextMD5)
	assert.Equal(t, first.Resume, second.Resume)
	assert.Equal(t, first.Report.Sections, second.Report.Sections)
	assert.Equal(t, first.Report.LineCount, second.Report.LineCount)
	assert.Equal(t, 1, cache.sets, "命中缓存时不重新写入")
}

func TestImportText_CacheHitKeepsFallbackFlags(t *testing.T) {
	cache := newFakeCache()
	repo := newFakeRepo()
	svc := newTestService(
		[]ComponentOpt{WithCache(cache), WithRepository(repo)},
		WithParsedEventRoute("resume.events.exchange", "resume.parsed"),
	)
	// 没有任何章节标题，技能走词典兜底，中间的空行不计入行数
	text := "Jane Doe\n\nI have used docker daily."

	first, err := svc.ImportText(context.Background(), TextRequest{Text: text})
	require.NoError(t, err)
	second, err := svc.ImportText(context.Background(), TextRequest{Text: text})
	require.NoError(t, err)

	require.False(t, first.Cached)
	require.True(t, second.Cached)
	assert.True(t, first.Report.SkillsFallback)
	assert.True(t, second.Report.SkillsFallback)
	assert.Equal(t, first.Report.ExperienceFallback, second.Report.ExperienceFallback)
	assert.Equal(t, 2, first.Report.LineCount)
	assert.Equal(t, 2, second.Report.LineCount)

	for _, id := range []string{first.SubmissionUUID, second.SubmissionUUID} {
		imp, ok := repo.imports[id]
		require.True(t, ok)
		assert.True(t, imp.UsedFallback, id)
	}

	require.Len(t, repo.outbox, 2)
	var event types.ResumeParsedEvent
	require.NoError(t, json.Unmarshal([]byte(repo.outbox[1].Payload), &event))
	assert.Equal(t, second.SubmissionUUID, event.SubmissionUUID)
	assert.True(t, event.UsedFallback)
}

func TestImportText_FirstSubmission(t *testing.T) {
	cache := newFakeCache()
	svc := newTestService([]ComponentOpt{WithCache(cache)})

	first, err := svc.ImportText(context.Background(), TextRequest{Text: testResume})
	require.NoError(t, err)
	second, err := svc.ImportText(context.Background(), TextRequest{Text: testResume})
	require.NoError(t, err)

	assert.Empty(t, first.Report.FirstSubmissionUUID)
	assert.Equal(t, first.SubmissionUUID, second.Report.FirstSubmissionUUID)

	other, err := svc.ImportText(context.Background(), TextRequest{Text: testResume + "\nRust"})
	require.NoError(t, err)
	assert.Empty(t, other.Report.FirstSubmissionUUID, "不同文本互不影响")
}

func TestImportText_FirstSubmissionErrorIgnored(t *testing.T) {
	cache := newFakeCache()
	cache.md5Err = errors.New("redis down")
	svc := newTestService([]ComponentOpt{WithCache(cache)})

	res, err := svc.ImportText(context.Background(), TextRequest{Text: testResume})
	require.NoError(t, err)
	assert.Empty(t, res.Report.FirstSubmissionUUID)
	assert.Equal(t, "Jane Doe", res.Resume.FullName)
}

func TestImportText_CacheKeyIncludesVersion(t *testing.T) {
	cache := newFakeCache()
	_, err := newTestService([]ComponentOpt{WithCache(cache)}, WithParserVersion("v1")).
		ImportText(context.Background(), TextRequest{Text: testResume})
	require.NoError(t, err)

	res, err := newTestService([]ComponentOpt{WithCache(cache)}, WithParserVersion("v2")).
		ImportText(context.Background(), TextRequest{Text: testResume})
	require.NoError(t, err)
	assert.False(t, res.Cached)
}

func TestImportText_Validation(t *testing.T) {
	svc := newTestService(nil, WithMaxUploadBytes(16))

	_, err := svc.ImportText(context.Background(), TextRequest{Text: "  \n\t "})
	assert.ErrorIs(t, err, ErrEmptyDocument)
	var ie *ImportError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "validate", ie.Op)
	assert.NotEmpty(t, ie.SubmissionUUID)

	_, err = svc.ImportText(context.Background(), TextRequest{Text: testResume})
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestImportPDF_PositionedPreferred(t *testing.T) {
	frags := &fakeFragments{pages: positionedPages("John Smith", "john@smith.dev", "Skills", "Go, Python")}
	flat := &fakeFlat{text: "should not be used"}
	archive := newFakeArchive()
	svc := newTestService([]ComponentOpt{
		WithFragmentExtractor(frags), WithTextExtractor(flat), WithArchive(archive),
	}, WithPreferPositioned(true))

	res, err := svc.ImportPDF(context.Background(), ImportRequest{FileName: "cv.pdf", Data: []byte("%PDF-1.4")})
	require.NoError(t, err)
	assert.Equal(t, ExtractMethodPositioned, res.Report.ExtractMethod)
	assert.Equal(t, "John Smith", res.Resume.FullName)
	assert.Equal(t, []string{"Go", "Python"}, res.Resume.Skills)
	assert.Equal(t, "resume/"+res.SubmissionUUID+"/original.pdf", res.Report.OriginalObject)
	assert.Equal(t, []byte("%PDF-1.4"), archive.originals[res.Report.OriginalObject])
}

func TestImportPDF_FallsBackToFlatText(t *testing.T) {
	svc := newTestService([]ComponentOpt{
		WithFragmentExtractor(&fakeFragments{err: errors.New("no text layer")}),
		WithTextExtractor(&fakeFlat{text: "Jane Doe\r\njane@example.com"}),
	}, WithPreferPositioned(true))

	res, err := svc.ImportPDF(context.Background(), ImportRequest{Data: []byte("%PDF")})
	require.NoError(t, err)
	assert.Equal(t, ExtractMethodFlat, res.Report.ExtractMethod)
	assert.Equal(t, "jane@example.com", res.Resume.Email)
	assert.NotContains(t, res.Resume.RawText, "\r")
}

func TestImportPDF_FlatFirstWhenNotPreferred(t *testing.T) {
	svc := newTestService([]ComponentOpt{
		WithFragmentExtractor(&fakeFragments{pages: positionedPages("Positioned Name")}),
		WithTextExtractor(&fakeFlat{text: "Flat Name"}),
	}, WithPreferPositioned(false))

	res, err := svc.ImportPDF(context.Background(), ImportRequest{Data: []byte("%PDF")})
	require.NoError(t, err)
	assert.Equal(t, ExtractMethodFlat, res.Report.ExtractMethod)
}

func TestImportPDF_ExtractFailures(t *testing.T) {
	svc := newTestService([]ComponentOpt{
		WithFragmentExtractor(&fakeFragments{err: errors.New("broken")}),
		WithTextExtractor(&fakeFlat{text: "   "}),
	})
	_, err := svc.ImportPDF(context.Background(), ImportRequest{Data: []byte("%PDF")})
	assert.ErrorIs(t, err, ErrExtractFailed)
	assert.True(t, IsPermanent(err))

	_, err = newTestService(nil).ImportPDF(context.Background(), ImportRequest{Data: []byte("%PDF")})
	assert.ErrorIs(t, err, ErrExtractFailed, "未配置提取器")

	_, err = svc.ImportPDF(context.Background(), ImportRequest{})
	assert.ErrorIs(t, err, ErrEmptyDocument)

	_, err = newTestService(nil, WithMaxUploadBytes(2)).ImportPDF(context.Background(), ImportRequest{Data: []byte("%PDF")})
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestImport_ArchiveFailureIsBestEffort(t *testing.T) {
	archive := newFakeArchive()
	archive.uploadErr = errors.New("minio down")
	svc := newTestService([]ComponentOpt{WithArchive(archive)})

	res, err := svc.ImportText(context.Background(), TextRequest{Text: testResume})
	require.NoError(t, err)
	assert.Empty(t, res.Report.RawTextObject)
}

func TestImport_PersistFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.saveErr = errors.New("mysql down")
	svc := newTestService([]ComponentOpt{WithRepository(repo)})

	_, err := svc.ImportText(context.Background(), TextRequest{Text: testResume})
	assert.ErrorIs(t, err, ErrPersistFailed)
	assert.False(t, IsPermanent(err))
}

func TestImport_NoOutboxWithoutEventRoute(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService([]ComponentOpt{WithRepository(repo)})

	_, err := svc.ImportText(context.Background(), TextRequest{Text: testResume})
	require.NoError(t, err)
	assert.Len(t, repo.imports, 1)
	assert.Empty(t, repo.outbox)
}

func TestGetImport(t *testing.T) {
	_, err := newTestService(nil).GetImport(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = newTestService(nil).GetImport(context.Background(), "0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b")
	assert.ErrorIs(t, err, ErrUnavailable)

	repo := newFakeRepo()
	svc := newTestService([]ComponentOpt{WithRepository(repo)})
	_, err = svc.GetImport(context.Background(), "0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b")
	assert.ErrorIs(t, err, ErrNotFound)

	res, err := svc.ImportText(context.Background(), TextRequest{Text: testResume})
	require.NoError(t, err)
	imp, err := svc.GetImport(context.Background(), res.SubmissionUUID)
	require.NoError(t, err)
	stored, err := imp.ParsedResume()
	require.NoError(t, err)
	assert.Equal(t, res.Resume, stored)
}

func TestEnqueuePDF(t *testing.T) {
	_, err := newTestService(nil).EnqueuePDF(context.Background(), ImportRequest{Data: []byte("%PDF")})
	assert.ErrorIs(t, err, ErrUnavailable)

	archive := newFakeArchive()
	repo := newFakeRepo()
	queue := &fakeQueue{}
	svc := newTestService([]ComponentOpt{WithArchive(archive), WithRepository(repo), WithQueue(queue, queue)})

	id, err := svc.EnqueuePDF(context.Background(), ImportRequest{FileName: "cv.pdf", Data: []byte("%PDF")})
	require.NoError(t, err)
	require.Len(t, queue.published, 1)

	pub := queue.published[0]
	assert.Equal(t, "resume.import.exchange", pub.exchange)
	assert.Equal(t, "resume.parse.requested", pub.key)
	msg, ok := pub.data.(types.ParseRequestMessage)
	require.True(t, ok)
	assert.Equal(t, id, msg.SubmissionUUID)
	assert.Equal(t, "resume/"+id+"/original.pdf", msg.OriginalObject)
	assert.Equal(t, constants.ImportSourceAsync, msg.Source)

	assert.Equal(t, models.ImportStatusPending, repo.imports[id].Status)
}

func TestEnqueuePDF_PublishFailureMarksRecord(t *testing.T) {
	repo := newFakeRepo()
	queue := &fakeQueue{publishErr: errors.New("channel closed")}
	svc := newTestService([]ComponentOpt{WithArchive(newFakeArchive()), WithRepository(repo), WithQueue(queue, queue)})

	_, err := svc.EnqueuePDF(context.Background(), ImportRequest{FileName: "cv.pdf", Data: []byte("%PDF")})
	assert.ErrorIs(t, err, ErrPublishFailed)
	var ie *ImportError
	require.ErrorAs(t, err, &ie)
	assert.Contains(t, repo.failed, ie.SubmissionUUID)
}

func TestHandleParseRequest(t *testing.T) {
	archive := newFakeArchive()
	repo := newFakeRepo()
	queue := &fakeQueue{}
	svc := newTestService([]ComponentOpt{
		WithArchive(archive), WithRepository(repo), WithQueue(queue, queue),
		WithTextExtractor(&fakeFlat{text: testResume}),
	})

	id, err := svc.EnqueuePDF(context.Background(), ImportRequest{FileName: "cv.pdf", Data: []byte("%PDF")})
	require.NoError(t, err)
	body, err := json.Marshal(queue.published[0].data)
	require.NoError(t, err)

	assert.True(t, svc.HandleParseRequest(context.Background(), body))
	imp := repo.imports[id]
	require.NotNil(t, imp)
	assert.Equal(t, models.ImportStatusParsed, imp.Status)
	assert.Equal(t, "Jane Doe", imp.FullName)
	assert.Equal(t, "resume/"+id+"/original.pdf", imp.OriginalObject)
	assert.Len(t, archive.originals, 1, "已归档的原件不重复上传")
}

func TestHandleParseRequest_Failures(t *testing.T) {
	archive := newFakeArchive()
	repo := newFakeRepo()
	svc := newTestService([]ComponentOpt{
		WithArchive(archive), WithRepository(repo),
		WithTextExtractor(&fakeFlat{err: errors.New("not a pdf")}),
	})
	ctx := context.Background()

	assert.True(t, svc.HandleParseRequest(ctx, []byte("{broken")), "格式错误的消息直接确认")

	missing, _ := json.Marshal(types.ParseRequestMessage{SubmissionUUID: "u-missing", OriginalObject: "resume/u-missing/original.pdf"})
	assert.True(t, svc.HandleParseRequest(ctx, missing))
	assert.Contains(t, repo.failed, "u-missing")

	archive.originals["resume/u-bad/original.pdf"] = []byte("garbage")
	bad, _ := json.Marshal(types.ParseRequestMessage{SubmissionUUID: "u-bad", OriginalObject: "resume/u-bad/original.pdf"})
	assert.True(t, svc.HandleParseRequest(ctx, bad), "提取失败属于永久错误")
	assert.Contains(t, repo.failed, "u-bad")

	archive.getErr = errors.New("timeout")
	assert.False(t, svc.HandleParseRequest(ctx, bad), "临时错误重新入队")
}

func TestStartParseConsumer(t *testing.T) {
	_, err := newTestService(nil).StartParseConsumer(context.Background(), 2)
	assert.ErrorIs(t, err, ErrUnavailable)

	queue := &fakeQueue{}
	svc := newTestService([]ComponentOpt{WithArchive(newFakeArchive()), WithQueue(queue, queue)})
	ctx, cancel := context.WithCancel(context.Background())
	done, err := svc.StartParseConsumer(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, queue.consumers)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumers did not stop")
	}
}

func TestImportError_Format(t *testing.T) {
	err := newImportError("u-1", "extract", ErrExtractFailed, errors.New("boom"))
	assert.Equal(t, "提取简历文本失败 (操作:extract, UUID:u-1): boom", err.Error())
	assert.True(t, errors.Is(err, ErrExtractFailed))
	assert.False(t, errors.Is(err, ErrPersistFailed))
}
