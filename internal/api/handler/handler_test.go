package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"guild-ledger/backend/internal/dto"
	"guild-ledger/backend/internal/model"
	"guild-ledger/backend/internal/service"
	pkgerrors "guild-ledger/backend/pkg/errors"
	"guild-ledger/backend/pkg/jwt"
	"guild-ledger/backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	loginResult  *dto.TokenResponse
	loginErr     error
	verifyResult *dto.VerifyResponse
	verifyErr    error
	logoutErr    error
	loggedOut    *jwt.Claims
}

func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) Verify(_ context.Context, _ string) (*dto.VerifyResponse, error) {
	return m.verifyResult, m.verifyErr
}
func (m *mockAuthService) Logout(_ context.Context, claims *jwt.Claims) error {
	m.loggedOut = claims
	return m.logoutErr
}

// ── Mock MemberService ──

type mockMemberService struct {
	listResult   []dto.MemberResponse
	memberResult *dto.MemberResponse
	err          error
}

func (m *mockMemberService) List(_ context.Context) ([]dto.MemberResponse, error) {
	return m.listResult, m.err
}
func (m *mockMemberService) GetByID(_ context.Context, _ string) (*dto.MemberResponse, error) {
	return m.memberResult, m.err
}
func (m *mockMemberService) Create(_ context.Context, _ *dto.CreateMemberRequest) (*dto.MemberResponse, error) {
	return m.memberResult, m.err
}
func (m *mockMemberService) Update(_ context.Context, _ string, _ *dto.UpdateMemberRequest) (*dto.MemberResponse, error) {
	return m.memberResult, m.err
}
func (m *mockMemberService) Delete(_ context.Context, _ string) error {
	return m.err
}

// ── Mock RoleTimelineService ──

type mockTimelineService struct {
	role          model.Role
	roleOK        bool
	roleAt        time.Time
	history       *dto.RoleHistoryResponse
	periodResult  *dto.RolePeriodResponse
	overlaps      []dto.RoleOverlapResponse
	initResult    *dto.InitHistoryResponse
	err           error
	updateRequest *dto.UpdateRolePeriodRequest
}

func (m *mockTimelineService) RoleAt(_ context.Context, _ string, at time.Time) (model.Role, bool, error) {
	m.roleAt = at
	return m.role, m.roleOK, m.err
}
func (m *mockTimelineService) CurrentRole(_ context.Context, _ string) (model.Role, bool, error) {
	return m.role, m.roleOK, m.err
}
func (m *mockTimelineService) History(_ context.Context, _ string) (*dto.RoleHistoryResponse, error) {
	return m.history, m.err
}
func (m *mockTimelineService) AddPeriod(_ context.Context, _ string, _ *dto.AddRolePeriodRequest) (*dto.RolePeriodResponse, error) {
	return m.periodResult, m.err
}
func (m *mockTimelineService) UpdatePeriod(_ context.Context, _ string, req *dto.UpdateRolePeriodRequest) (*dto.RolePeriodResponse, error) {
	m.updateRequest = req
	return m.periodResult, m.err
}
func (m *mockTimelineService) DeletePeriod(_ context.Context, _ string) error {
	return m.err
}
func (m *mockTimelineService) Overlaps(_ context.Context, _ string) ([]dto.RoleOverlapResponse, error) {
	return m.overlaps, m.err
}
func (m *mockTimelineService) InitializeHistory(_ context.Context) (*dto.InitHistoryResponse, error) {
	return m.initResult, m.err
}

// ── Mock AttendanceService ──

type mockAttendanceService struct {
	syncedWeek string
	err        error
}

func (m *mockAttendanceService) Sync(ctx context.Context) (*dto.AttendanceSyncResponse, error) {
	return m.SyncWeek(ctx, "2026-42")
}
func (m *mockAttendanceService) SyncWeek(_ context.Context, week string) (*dto.AttendanceSyncResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.syncedWeek = week
	return &dto.AttendanceSyncResponse{WeekProcessed: week, AttendanceRecorded: 3}, nil
}

// ── Mock BossService ──

type mockBossService struct {
	listResult []dto.BossResponse
	bossResult *dto.BossResponse
	calendar   []byte
	err        error
}

func (m *mockBossService) List(_ context.Context) ([]dto.BossResponse, error) {
	return m.listResult, m.err
}
func (m *mockBossService) Create(_ context.Context, _ *dto.CreateBossRequest) (*dto.BossResponse, error) {
	return m.bossResult, m.err
}
func (m *mockBossService) Update(_ context.Context, _ string, _ *dto.UpdateBossRequest) (*dto.BossResponse, error) {
	return m.bossResult, m.err
}
func (m *mockBossService) Kill(_ context.Context, _ string, _ *dto.KillBossRequest) (*dto.BossResponse, error) {
	return m.bossResult, m.err
}
func (m *mockBossService) Delete(_ context.Context, _ string) error {
	return m.err
}
func (m *mockBossService) Calendar(_ context.Context) ([]byte, error) {
	return m.calendar, m.err
}

// ── Mock LootService ──

type mockLootService struct {
	listResult   []dto.LootItemResponse
	listTotal    int64
	listRequest  *dto.LootListRequest
	itemResult   *dto.LootItemResponse
	importResult *dto.ImportLootResponse
	err          error
}

func (m *mockLootService) List(_ context.Context, req *dto.LootListRequest) ([]dto.LootItemResponse, int64, error) {
	m.listRequest = req
	return m.listResult, m.listTotal, m.err
}
func (m *mockLootService) GetByID(_ context.Context, _ string) (*dto.LootItemResponse, error) {
	return m.itemResult, m.err
}
func (m *mockLootService) Create(_ context.Context, _ *dto.CreateLootRequest) (*dto.LootItemResponse, error) {
	return m.itemResult, m.err
}
func (m *mockLootService) Update(_ context.Context, _ string, _ *dto.UpdateLootRequest) (*dto.LootItemResponse, error) {
	return m.itemResult, m.err
}
func (m *mockLootService) UpdateStatus(_ context.Context, _ string, _ string) (*dto.LootItemResponse, error) {
	return m.itemResult, m.err
}
func (m *mockLootService) Delete(_ context.Context, _ string) error {
	return m.err
}
func (m *mockLootService) Import(_ context.Context, _ *dto.ImportLootRequest) (*dto.ImportLootResponse, error) {
	return m.importResult, m.err
}

// ── Mock SalaryService ──

type mockSalaryService struct {
	result *dto.RecalculationResponse
	err    error
}

func (m *mockSalaryService) Recalculate(_ context.Context) (*dto.RecalculationResponse, error) {
	return m.result, m.err
}

// ── Mock ReportService ──

type mockReportService struct {
	integrity *dto.IntegrityReportResponse
	buf       *bytes.Buffer
	filename  string
	err       error
}

func (m *mockReportService) Financial(_ context.Context) (*dto.FinancialReportResponse, error) {
	return &dto.FinancialReportResponse{}, m.err
}
func (m *mockReportService) Members(_ context.Context) (*dto.MemberReportResponse, error) {
	return &dto.MemberReportResponse{}, m.err
}
func (m *mockReportService) MarketExchange(_ context.Context) (*dto.MarketExchangeResponse, error) {
	return &dto.MarketExchangeResponse{}, m.err
}
func (m *mockReportService) Integrity(_ context.Context) (*dto.IntegrityReportResponse, error) {
	return m.integrity, m.err
}
func (m *mockReportService) Dashboard(_ context.Context) (*dto.DashboardResponse, error) {
	return &dto.DashboardResponse{}, m.err
}
func (m *mockReportService) ExportFinancial(_ context.Context) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func setAuth(c *gin.Context) {
	c.Set(ctxAdminID, "test-admin-id")
	c.Set(ctxClaims, &jwt.Claims{AdminID: "test-admin-id", Username: "root"})
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

// serve 在独立路由上执行一次请求；authed 为 true 时模拟 JWT 中间件注入
func serve(method, route, target string, body io.Reader, authed bool, h gin.HandlerFunc) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	r := gin.New()
	r.Handle(method, route, func(c *gin.Context) {
		if authed {
			setAuth(c)
		}
		h(c)
	})
	r.ServeHTTP(w, req)
	return w
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Login_Success(t *testing.T) {
	mock := &mockAuthService{
		loginResult: &dto.TokenResponse{AccessToken: "test-access-token", ExpiresIn: 86400},
	}
	h := NewAuthHandler(mock)

	w := serve("POST", "/auth/login", "/auth/login", jsonBody(dto.LoginRequest{
		Username: "root",
		Password: "s3cret-pass",
	}), false, h.Login)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
}

func TestAuthHandler_Login_BadJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := serve("POST", "/auth/login", "/auth/login", strings.NewReader("invalid json"), false, h.Login)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{loginErr: service.ErrInvalidCredentials})

	w := serve("POST", "/auth/login", "/auth/login", jsonBody(dto.LoginRequest{
		Username: "root",
		Password: "wrong",
	}), false, h.Login)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 11001 {
		t.Errorf("expected error code 11001, got %d", resp.Code)
	}
}

func TestAuthHandler_Verify(t *testing.T) {
	mock := &mockAuthService{verifyResult: &dto.VerifyResponse{Valid: true}}
	h := NewAuthHandler(mock)

	w := serve("GET", "/auth/verify", "/auth/verify", nil, true, h.Verify)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	w = serve("GET", "/auth/verify", "/auth/verify", nil, false, h.Verify)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without auth context, got %d", w.Code)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	mock := &mockAuthService{}
	h := NewAuthHandler(mock)

	w := serve("POST", "/auth/logout", "/auth/logout", nil, true, h.Logout)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if mock.loggedOut == nil || mock.loggedOut.AdminID != "test-admin-id" {
		t.Errorf("expected claims to be passed to Logout, got %+v", mock.loggedOut)
	}
}

// ═══════════════════════════════════════════════════════════
// MemberHandler Tests
// ═══════════════════════════════════════════════════════════

func newTestMemberHandler(m *mockMemberService, tl *mockTimelineService, att *mockAttendanceService) *MemberHandler {
	if m == nil {
		m = &mockMemberService{}
	}
	if tl == nil {
		tl = &mockTimelineService{}
	}
	if att == nil {
		att = &mockAttendanceService{}
	}
	return NewMemberHandler(m, tl, att)
}

func TestMemberHandler_CreateMember(t *testing.T) {
	mock := &mockMemberService{memberResult: &dto.MemberResponse{ID: "m1", Name: "Aria"}}
	h := newTestMemberHandler(mock, nil, nil)

	w := serve("POST", "/members", "/members", jsonBody(dto.CreateMemberRequest{Name: "Aria", Role: "CORE"}), true, h.CreateMember)
	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}

	w = serve("POST", "/members", "/members", jsonBody(map[string]string{"name": "Aria"}), true, h.CreateMember)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 when role missing, got %d", w.Code)
	}
}

func TestMemberHandler_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantHTTP int
		wantCode int
	}{
		{"not found", service.ErrMemberNotFound, http.StatusNotFound, 12001},
		{"duplicate", service.ErrDuplicateName, http.StatusConflict, 12002},
		{"invalid role", service.ErrInvalidRole, http.StatusBadRequest, 12004},
		{"internal", errors.New("db down"), http.StatusInternalServerError, 50000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestMemberHandler(&mockMemberService{err: tt.err}, nil, nil)
			role := "CORE"
			w := serve("PUT", "/members/:id", "/members/m1", jsonBody(dto.UpdateMemberRequest{Role: &role}), true, h.UpdateMember)

			if w.Code != tt.wantHTTP {
				t.Errorf("expected %d, got %d", tt.wantHTTP, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestMemberHandler_GetRoleAt(t *testing.T) {
	tl := &mockTimelineService{role: model.RoleCore, roleOK: true}
	h := newTestMemberHandler(nil, tl, nil)

	w := serve("GET", "/members/:id/role", "/members/m1/role?at=2026-03-01T00:00:00Z", nil, false, h.GetRoleAt)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !tl.roleAt.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected at to be parsed, got %v", tl.roleAt)
	}

	w = serve("GET", "/members/:id/role", "/members/m1/role?at=yesterday", nil, false, h.GetRoleAt)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad at, got %d", w.Code)
	}
}

func TestMemberHandler_UpdateRolePeriod(t *testing.T) {
	tl := &mockTimelineService{periodResult: &dto.RolePeriodResponse{ID: "p1"}}
	h := newTestMemberHandler(nil, tl, nil)

	w := serve("PUT", "/members/role-history/:periodId", "/members/role-history/p1",
		strings.NewReader(`{"clear_end_date": true}`), true, h.UpdateRolePeriod)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if tl.updateRequest == nil || !tl.updateRequest.ClearEndDate {
		t.Errorf("expected clear_end_date to be bound, got %+v", tl.updateRequest)
	}

	tl.err = service.ErrRolePeriodNotFound
	w = serve("DELETE", "/members/role-history/:periodId", "/members/role-history/p1", nil, true, h.DeleteRolePeriod)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestMemberHandler_SyncAttendance(t *testing.T) {
	att := &mockAttendanceService{}
	h := newTestMemberHandler(nil, nil, att)

	w := serve("POST", "/members/attendance/sync", "/members/attendance/sync?week=2026-05", nil, true, h.SyncAttendance)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if att.syncedWeek != "2026-05" {
		t.Errorf("expected week 2026-05, got %s", att.syncedWeek)
	}

	att.err = service.ErrInvalidWeekKey
	w = serve("POST", "/members/attendance/sync", "/members/attendance/sync?week=bad", nil, true, h.SyncAttendance)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// BossHandler Tests
// ═══════════════════════════════════════════════════════════

func TestBossHandler_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantHTTP int
		wantCode int
	}{
		{"optimistic lock", pkgerrors.ErrOptimisticLock, http.StatusConflict, 14006},
		{"not found", service.ErrBossNotFound, http.StatusNotFound, 14001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewBossHandler(&mockBossService{err: tt.err})
			w := serve("POST", "/bosses/:id/kill", "/bosses/b1/kill", jsonBody(dto.KillBossRequest{Version: 1}), true, h.KillBoss)

			if w.Code != tt.wantHTTP {
				t.Errorf("expected %d, got %d", tt.wantHTTP, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestBossHandler_DeleteInUse(t *testing.T) {
	h := NewBossHandler(&mockBossService{err: service.ErrBossInUse})

	w := serve("DELETE", "/bosses/:id", "/bosses/b1", nil, true, h.DeleteBoss)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

func TestBossHandler_UpdateRequiresVersion(t *testing.T) {
	h := NewBossHandler(&mockBossService{})

	w := serve("PUT", "/bosses/:id", "/bosses/b1", jsonBody(map[string]string{"name": "Kutum"}), true, h.UpdateBoss)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// LootHandler Tests
// ═══════════════════════════════════════════════════════════

func TestLootHandler_ListLoot(t *testing.T) {
	mock := &mockLootService{listResult: []dto.LootItemResponse{{ID: "l1"}}, listTotal: 1}
	h := NewLootHandler(mock, &mockSalaryService{})

	w := serve("GET", "/loot", "/loot?search=ring", nil, false, h.ListLoot)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.listRequest.Search != "ring" {
		t.Errorf("expected search to be bound, got %q", mock.listRequest.Search)
	}

	w = serve("GET", "/loot", "/loot?page=1&page_size=10", nil, false, h.ListLoot)
	var paged struct {
		Data response.PageData `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &paged)
	if paged.Data.Pagination.Total != 1 || paged.Data.Pagination.PageSize != 10 {
		t.Errorf("expected pagination metadata, got %+v", paged.Data.Pagination)
	}

	w = serve("GET", "/loot", "/loot?status=LOST", nil, false, h.ListLoot)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid status, got %d", w.Code)
	}
}

func TestLootHandler_CreateErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantHTTP int
		wantCode int
	}{
		{"boss missing", service.ErrBossNotFound, http.StatusBadRequest, 15004},
		{"participant missing", service.ErrParticipantNotFound, http.StatusBadRequest, 15003},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewLootHandler(&mockLootService{err: tt.err}, &mockSalaryService{})
			w := serve("POST", "/loot", "/loot", jsonBody(dto.CreateLootRequest{
				Name:         "Ring",
				BossID:       "b1",
				Value:        100,
				DateAcquired: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
			}), true, h.CreateLoot)

			if w.Code != tt.wantHTTP {
				t.Errorf("expected %d, got %d", tt.wantHTTP, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestLootHandler_Recalculate(t *testing.T) {
	ok := NewLootHandler(&mockLootService{}, &mockSalaryService{result: &dto.RecalculationResponse{SalariesCreated: 7}})
	w := serve("POST", "/loot/recalculate", "/loot/recalculate", nil, true, ok.Recalculate)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	failed := NewLootHandler(&mockLootService{}, &mockSalaryService{err: errors.New("tx failed")})
	w = serve("POST", "/loot/recalculate", "/loot/recalculate", nil, true, failed.Recalculate)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 15101 {
		t.Errorf("expected code 15101, got %d", resp.Code)
	}
}

func TestLootHandler_ImportRequiresRows(t *testing.T) {
	h := NewLootHandler(&mockLootService{}, &mockSalaryService{})

	w := serve("POST", "/loot/import", "/loot/import", jsonBody(dto.ImportLootRequest{}), true, h.ImportLoot)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ReportHandler / ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestReportHandler_Integrity(t *testing.T) {
	h := NewReportHandler(&mockReportService{integrity: &dto.IntegrityReportResponse{Stale: true}})

	w := serve("GET", "/reports/integrity", "/reports/integrity", nil, true, h.Integrity)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"stale":true`) {
		t.Errorf("expected stale flag in body: %s", w.Body.String())
	}
}

func TestExportHandler_ExportFinancial(t *testing.T) {
	mock := &mockReportService{
		buf:      bytes.NewBufferString("excel content"),
		filename: "财务报表_20260615.xlsx",
	}
	h := NewExportHandler(mock, &mockBossService{})

	w := serve("GET", "/reports/financial/export", "/reports/financial/export", nil, true, h.ExportFinancial)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("unexpected content type: %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "filename*=UTF-8''") {
		t.Errorf("expected encoded filename, got %q", cd)
	}
}

func TestExportHandler_ExportFinancial_Fail(t *testing.T) {
	h := NewExportHandler(&mockReportService{err: service.ErrExportGenerateFail}, &mockBossService{})

	w := serve("GET", "/reports/financial/export", "/reports/financial/export", nil, true, h.ExportFinancial)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 16101 {
		t.Errorf("expected code 16101, got %d", resp.Code)
	}
}

func TestExportHandler_BossCalendar(t *testing.T) {
	h := NewExportHandler(&mockReportService{}, &mockBossService{calendar: []byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n")})

	w := serve("GET", "/bosses/calendar.ics", "/bosses/calendar.ics", nil, false, h.BossCalendar)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != icsContentType {
		t.Errorf("unexpected content type: %s", ct)
	}
	if !strings.HasPrefix(w.Body.String(), "BEGIN:VCALENDAR") {
		t.Errorf("unexpected body: %q", w.Body.String())
	}
}
