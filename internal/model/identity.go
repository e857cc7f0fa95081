package model

// Identity はセッショントークンに埋め込まれる呼び出し元の識別情報を表す。
// Emailは予約の所有者キーとして使用し、正規化（大文字小文字変換・空白除去）は行わない。
type Identity struct {
	Email string `json:"email"`
}
