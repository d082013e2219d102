package store

// OfflineWarning: yerel kopyadan dönen cevaplarda arayüze gösterilen uyarı
const OfflineWarning = "Mode hors ligne : données locales affichées."

// Envelope: liste ve mutasyon cevaplarının ortak zarfı
type Envelope struct {
	Source  Source `json:"source"`
	Warning string `json:"warning,omitempty"`
	Data    any    `json:"data"`
}

func Wrap(src Source, data any) Envelope {
	env := Envelope{Source: src, Data: data}
	if src != SourceLive {
		env.Warning = OfflineWarning
	}
	return env
}

func WrapResult[T any](res Result[T]) Envelope {
	return Wrap(res.Source, res.Data)
}
