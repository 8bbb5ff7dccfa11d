package result

import "fmt"

// Text returns the notification title and message for r. articleTitle is
// the title of the page being saved and may be empty.
func Text(r Result, articleTitle string) (title, message string) {
	if articleTitle == "" {
		articleTitle = "記事"
	}
	switch r.Status {
	case StatusSucceeded:
		if r.Restored {
			return "保存完了", fmt.Sprintf("「%s」を再登録しました", articleTitle)
		}
		return "保存完了", fmt.Sprintf("「%s」をCuraQに保存しました", articleTitle)
	case StatusHandedOff:
		return "CuraQ", "CuraQの共有ページを開きました。ログインして保存を完了してください"
	case StatusAwaitingConfirmation:
		return "確認", fmt.Sprintf("「%s」を送信しますか？", articleTitle)
	}
	return failureTitle(r.Kind), Message(r.Kind, r.Detail)
}

func failureTitle(kind Kind) string {
	switch kind {
	case KindAlreadyRead:
		return "既読記事"
	case KindMonthlyLimit:
		return "月間制限"
	case KindUnreadLimit:
		return "未読上限"
	case KindInvalidCredential:
		return "未ログイン"
	case KindPlanRequired:
		return "プラン制限"
	}
	return "エラー"
}

// Message is the localized user-facing message for a failure kind.
func Message(kind Kind, detail string) string {
	switch kind {
	case KindExtractionFailed:
		if detail != "" && detail != NoContent {
			return fmt.Sprintf("記事の抽出に失敗しました: %s", detail)
		}
		return "記事コンテンツを抽出できませんでした"
	case KindPageNotCapturable:
		return "このページは保存できません"
	case KindInvalidCredential:
		return "CuraQにログインしていません。設定からトークンを登録してください"
	case KindPlanRequired:
		return "この機能を利用するには有料プランが必要です"
	case KindUnreadLimit:
		return "未読記事が30件に達しています。記事を読んでから追加してください"
	case KindMonthlyLimit:
		return "今月の記事保存上限に達しました"
	case KindAlreadyRead:
		return "この記事は既に読了済みです"
	case KindInvalidContent:
		return "記事の内容を保存できませんでした"
	case KindRemoteFetchTimeout:
		return "記事の取得がタイムアウトしました"
	case KindNetworkError:
		return "ネットワークエラーが発生しました"
	}
	if detail != "" {
		return fmt.Sprintf("保存に失敗しました: %s", detail)
	}
	return "保存に失敗しました"
}

// NoContent is the ExtractionFailed detail used when the page has no
// readable article.
const NoContent = "no-content"
