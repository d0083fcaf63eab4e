package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "feedback.no_answers")
	if got != "No answers were provided for this section." {
		t.Errorf("T(feedback.no_answers) = %q", got)
	}
}

func TestTranslateVietnamese(t *testing.T) {
	ctx := initLang(t, "vi")

	got := T(ctx, "feedback.no_answers")
	if got != "Không có câu trả lời nào cho phần này." {
		t.Errorf("T(feedback.no_answers) = %q", got)
	}

	got = T(ctx, "error.session_not_found")
	if got != "Không tìm thấy phiên thi." {
		t.Errorf("T(error.session_not_found) = %q", got)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "status.overall_band", map[string]any{"Band": 6.5})
	if got != "Overall band: 6.5" {
		t.Errorf("Td(status.overall_band) = %q", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want the key itself", got)
	}
}

func TestNoLocalizerFallsBackToEnglish(t *testing.T) {
	initLang(t, "en")

	got := T(context.Background(), "error.internal")
	if got != "An internal error occurred." {
		t.Errorf("T without localizer = %q", got)
	}
}

func TestMiddlewareHonorsAcceptLanguage(t *testing.T) {
	initLang(t, "en")

	var got string
	handler := Middleware("en")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "feedback.grading_unavailable")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "vi")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got != "Không thể chấm điểm tự động; điểm trung lập đã được gán." {
		t.Errorf("middleware translation = %q, want Vietnamese", got)
	}
}
