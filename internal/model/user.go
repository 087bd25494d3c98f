// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// 外部IdPが発行したIDをそのまま主キーとして使う。
// 初回ログイン時に作成され、以降は更新されない。
type User struct {
	ID        string
	Email     string
	Name      string
	Picture   *string
	CreatedAt time.Time
}

// Session はユーザーのログインセッションを表す。
// 1ユーザーが複数のセッションを同時に持つことを許容する（マルチデバイス）。
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired は指定時刻においてセッションが期限切れかどうかを返す。
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
