package models

// SettingsKey - ключ, под которым панель хранит настройки вызова
const SettingsKey = "sentinel_dispatch_config"

// DispatchCredentials - настройки, которые вводит пользователь.
// Непустые поля перекрывают значения сервера по умолчанию.
type DispatchCredentials struct {
	AccountSID   string `json:"accountSid"`
	AuthToken    string `json:"authToken"`
	From         string `json:"from"`
	To           string `json:"to"`
	GoogleAPIKey string `json:"googleApiKey"`
	GeminiAPIKey string `json:"geminiApiKey"`
}

// ModelAPIKey возвращает ключ модели: googleApiKey, затем geminiApiKey
func (c *DispatchCredentials) ModelAPIKey() string {
	if c == nil {
		return ""
	}
	if c.GoogleAPIKey != "" {
		return c.GoogleAPIKey
	}
	return c.GeminiAPIKey
}

// IsZero сообщает, что ни одно поле не заполнено
func (c *DispatchCredentials) IsZero() bool {
	return c == nil || *c == DispatchCredentials{}
}

// Merge накладывает пользовательские значения на значения по умолчанию.
// Если нет ни тех, ни других, возвращает nil.
func Merge(user, defaults *DispatchCredentials) *DispatchCredentials {
	if user.IsZero() && defaults.IsZero() {
		return nil
	}
	out := DispatchCredentials{}
	if defaults != nil {
		out = *defaults
	}
	if user == nil {
		return &out
	}
	pick := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	pick(&out.AccountSID, user.AccountSID)
	pick(&out.AuthToken, user.AuthToken)
	pick(&out.From, user.From)
	pick(&out.To, user.To)
	pick(&out.GoogleAPIKey, user.GoogleAPIKey)
	pick(&out.GeminiAPIKey, user.GeminiAPIKey)
	return &out
}
