package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemovePoliteEndings(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"สวัสดีครับ", "สวัสดี"},
		{"สวัสดีค่ะ", "สวัสดี"},
		{"ขอบคุณนะจ้ะ", "ขอบคุณ"},
		{"สวัสดี", "สวัสดี"},
		{"  สวัสดีครับ  ", "สวัสดี"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RemovePoliteEndings(tt.input), "input %q", tt.input)
	}
}

func TestExtractDigits(t *testing.T) {
	assert.Equal(t, "100", ExtractDigits("ไม่เกิน 100"))
	assert.Equal(t, "1500", ExtractDigits("ประมาณ 1,500 บาท"))
	assert.Equal(t, "", ExtractDigits("ทั้งหมด"))
}
