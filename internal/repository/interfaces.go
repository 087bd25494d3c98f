// Package repository はデータ永続化のインターフェースを定義する。
// ストアはキー検索・UPSERT・全件走査・キー削除のみを提供し、
// 操作をまたいだトランザクションは提供しない。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/hygienesurvey/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error

	// FindByToken は指定トークンのセッションを取得する。見つからない場合はnilを返す。
	// 期限切れのセッションもそのまま返す。期限の判定は呼び出し側で行う。
	FindByToken(ctx context.Context, token string) (*model.Session, error)

	// DeleteByToken は指定トークンのセッションを削除する。存在しない場合もエラーにしない。
	DeleteByToken(ctx context.Context, token string) error

	// DeleteExpired はnow時点で期限切れのセッションを全て削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// SurveyRepository はアンケート回答の永続化インターフェース。
// user_idごとに高々1件の回答を保持する。
type SurveyRepository interface {
	// Upsert はuser_idをキーに回答を丸ごと置き換える（存在しなければ作成する）。
	Upsert(ctx context.Context, survey *model.SurveyResponse) error

	// FindByUserID は指定ユーザーの回答を取得する。未回答の場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.SurveyResponse, error)

	// ListAll は全ユーザーの回答を取得する。順序は保証しない。
	// 単一クエリで取得するため、結果は一時点のスナップショットとなる。
	ListAll(ctx context.Context) ([]*model.SurveyResponse, error)
}
