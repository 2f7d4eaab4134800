package locale

// AuthErrorCodes lists the identity provider error codes with a dedicated message.
var AuthErrorCodes = []string{
	"auth/invalid-email",
	"auth/email-already-in-use",
	"auth/wrong-password",
	"auth/user-not-found",
	"auth/invalid-credential",
	"auth/email-not-verified",
	"auth/network-request-failed",
}

const authErrorDefault = "default"

var authErrors = map[string]map[Language]string{
	"auth/invalid-email": {
		English:  "Invalid email address",
		Korean:   "유효하지 않은 이메일 주소입니다",
		Japanese: "無効なメールアドレスです",
	},
	"auth/email-already-in-use": {
		English:  "This email is already in use",
		Korean:   "이미 사용 중인 이메일입니다",
		Japanese: "このメールは既に使用されています",
	},
	"auth/wrong-password": {
		English:  "Wrong password",
		Korean:   "잘못된 비밀번호입니다",
		Japanese: "パスワードが間違っています",
	},
	"auth/user-not-found": {
		English:  "User not found",
		Korean:   "사용자를 찾을 수 없습니다",
		Japanese: "ユーザーが見つかりません",
	},
	"auth/invalid-credential": {
		English:  "Email or password is incorrect",
		Korean:   "이메일 혹은 비밀번호가 일치하지 않습니다",
		Japanese: "メールまたはパスワードが正しくありません",
	},
	"auth/email-not-verified": {
		English:  "Please verify your email before signing in. Check your inbox for the verification link.",
		Korean:   "로그인하기 전에 이메일 인증을 완료해주세요. 받은 편지함에서 인증 링크를 확인해주세요.",
		Japanese: "ログインする前にメールを認証してください。受信トレイで認証リンクを確認してください。",
	},
	"auth/network-request-failed": {
		English:  "Network error. Please try again.",
		Korean:   "네트워크 오류가 발생했습니다. 다시 시도해주세요.",
		Japanese: "ネットワークエラーが発生しました。もう一度お試しください。",
	},
	authErrorDefault: {
		English:  "An error occurred. Please try again.",
		Korean:   "오류가 발생했습니다. 다시 시도해주세요.",
		Japanese: "エラーが発生しました。もう一度お試しください。",
	},
}

// AuthErrorMessage maps an identity provider error code to a localized
// message. Unknown codes get the generic message.
func AuthErrorMessage(code string, lang Language) (message string, known bool) {
	entries, known := authErrors[code]
	if !known {
		entries = authErrors[authErrorDefault]
	}
	if text, ok := entries[lang]; ok {
		return text, known
	}
	return entries[English], known
}
