package news

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractGameTag(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"[리뷰] 엘든 링 DLC 감상", ""},
		{"[엘든 링 리뷰] 굉장한 확장팩", "엘든 링"},
		{"[로스트아크] 신규 레이드 예고", "로스트아크"},
		{"[업데이트] 패치 안내", ""},
		{"[2024] 올해의 게임", ""},
		{"넥슨 'Mabinogi' 신작 공개", "Mabinogi"},
		{"넥슨 ‘마비노기 모바일’ 출시일 확정", "마비노기 모바일"},
		{"메이플스토리, 여름 업데이트 공개", "메이플스토리"},
		{"Nexon, 신작 발표", ""},
		{"아주 긴 이름을 가진 어떤 게임의 제목, 발표", ""},
		{"그냥 평범한 기사 제목", ""},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractGameTag(tt.title))
		})
	}
}

func TestCleanTitle(t *testing.T) {
	assert.Equal(t, "신규 레이드", CleanTitle("HOT [로스트아크] 신규 레이드"))
	assert.Equal(t, "첫 줄", CleanTitle("[태그] 첫 줄\n둘째 줄"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "가나", Truncate("가나다", 2))
	assert.Equal(t, "abc", Truncate("abc", 5))
}
