package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestOKPage_TotalPages(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	OKPage(c, []int{1, 2}, 41, 1, 20)

	var body struct {
		Code int `json:"code"`
		Data struct {
			Pagination Pagination `json:"pagination"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if body.Data.Pagination.TotalPages != 3 {
		t.Errorf("期望 TotalPages=3，实际=%d", body.Data.Pagination.TotalPages)
	}
}

func TestErrorWithDetails(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	ErrorWithDetails(c, http.StatusBadRequest, 40001, "导入失败", []string{"第 2 行: 日期格式无效"})

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望状态码 400，实际=%d", w.Code)
	}
	var body Response
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if body.Code != 40001 || body.Details == nil {
		t.Errorf("响应体不符合预期: %+v", body)
	}
}

func TestAttachment(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Attachment(c, "bosses.ics", "text/calendar", []byte("BEGIN:VCALENDAR"))

	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="bosses.ics"` {
		t.Errorf("Content-Disposition 不符合预期: %s", got)
	}
	if w.Body.String() != "BEGIN:VCALENDAR" {
		t.Errorf("响应体不符合预期: %s", w.Body.String())
	}
}
