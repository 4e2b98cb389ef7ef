package model

import "strings"

// Slugify は名前をURL向けスラッグに変換する。
// 英数字以外は"-"にまとめ、先頭末尾の"-"は落とす。
func Slugify(name string) string {
	var b strings.Builder
	prevDash := true // 先頭のダッシュを抑制

	for _, r := range strings.ToLower(name) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if isAlnum {
			b.WriteRune(r)
			prevDash = false
			continue
		}
		if !prevDash {
			b.WriteByte('-')
			prevDash = true
		}
	}

	return strings.Trim(b.String(), "-")
}
