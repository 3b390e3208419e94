package domain

import "strings"

// Host identifies a freelance marketplace by its base address.
type Host string

func (h Host) String() string {
	return string(h)
}

const (
	HostFLRU Host = "https://www.fl.ru"
	HostFLUA Host = "https://freelance.ua"
)

// Hosts lists the supported marketplaces in dispatch order.
var Hosts = []Host{HostFLRU, HostFLUA}

// Hashtag converts the host address into a Telegram hashtag label,
// e.g. "https://www.fl.ru" -> "#fl_ru".
func (h Host) Hashtag() string {
	label := string(h)
	label = strings.TrimPrefix(label, "https://")
	label = strings.TrimPrefix(label, "http://")
	label = strings.TrimPrefix(label, "www.")
	return "#" + strings.ReplaceAll(label, ".", "_")
}
