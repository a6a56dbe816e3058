package domain

// Action - кнопка под сообщением: либо ссылка, либо callback для бота
type Action struct {
	Label        string
	URL          string
	CallbackData string
}

// Notification - готовое к отправке сообщение одному получателю
type Notification struct {
	Recipient int64
	Text      string
	Photo     []byte
	Actions   []Action
}

func (n Notification) HasPhoto() bool {
	return len(n.Photo) > 0
}

// NotificationStats - счетчики очереди оповещений
type NotificationStats struct {
	Pending   int   `json:"pending"`
	Delivered int64 `json:"delivered"`
	Failed    int64 `json:"failed"`
}
