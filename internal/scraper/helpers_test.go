package scraper

import (
	"context"
	"fmt"
	"io"
	"strings"
	"upperlimit/internal/utils"
)

func testLogger() *utils.Logger {
	return utils.NewLoggerWithWriter(io.Discard, "debug")
}

type fakeFetcher struct {
	pages map[string]string
	errs  map[string]error
	calls []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, src utils.Source) (string, error) {
	f.calls = append(f.calls, src.Name)
	if err, ok := f.errs[src.Name]; ok {
		return "", err
	}
	page, ok := f.pages[src.Name]
	if !ok {
		return "", fmt.Errorf("no page for %s", src.Name)
	}
	return page, nil
}

type fakeCodeLoader struct {
	directory CodeDirectory
	err       error
	calls     int
}

func (f *fakeCodeLoader) Load(ctx context.Context) (CodeDirectory, error) {
	f.calls++
	return f.directory, f.err
}

// stockRow renders one market table row: N, 연속, 누적, name, price, diff,
// change, volume, open, high, low, PER.
func stockRow(n int, name, price, change string) string {
	return fmt.Sprintf(
		"<tr><td>%d</td><td>1</td><td>%d</td><td><a href=\"#\">%s</a></td><td>%s</td><td>상한가 1,000</td>"+
			"<td>\n\t%s\n</td><td>1,234,567</td><td>9,500</td><td>%s</td><td>9,400</td><td>15.20</td></tr>",
		n, n+2, name, price, change, price)
}

// marketPage wraps rows in a page shaped like the portal's limit-up page.
func marketPage(rows ...string) string {
	return `<html><body>
<table class="layout"><tr><th>메뉴</th><th>링크</th></tr><tr><td>홈</td><td>시세</td></tr></table>
<table class="type_5">
<tr><th>N</th><th>연속</th><th>누적</th><th>종목명</th><th>현재가</th><th>전일비</th><th>등락률</th><th>거래량</th><th>시가</th><th>고가</th><th>저가</th><th>PER</th></tr>
<tr><td colspan="12" class="blank_08"></td></tr>
` + strings.Join(rows, "\n") + `
<tr><td colspan="12" class="blank_08"></td></tr>
</table>
</body></html>`
}

func codePage(pairs ...[2]string) string {
	var sb strings.Builder
	sb.WriteString("<table><tr><th>회사명</th><th>시장구분</th><th>종목코드</th><th>업종</th></tr>")
	for _, p := range pairs {
		sb.WriteString(fmt.Sprintf("<tr><td>%s</td><td>유가</td><td>%s</td><td>제조</td></tr>", p[0], p[1]))
	}
	sb.WriteString("</table>")
	return sb.String()
}
