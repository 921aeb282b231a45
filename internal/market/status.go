package market

type Status string

// Wire values match what clients already store and display.
const (
	StatusMenungguPembayaran Status = "Menunggu Pembayaran"
	StatusMenungguKonfirmasi Status = "Menunggu Konfirmasi"
	StatusDiproses           Status = "Diproses"
	StatusDikirim            Status = "Dikirim"
	StatusSelesai            Status = "Selesai"
	StatusDibatalkan         Status = "Dibatalkan"
)

var validStatus = map[Status]bool{
	StatusMenungguPembayaran: true,
	StatusMenungguKonfirmasi: true,
	StatusDiproses:           true,
	StatusDikirim:            true,
	StatusSelesai:            true,
	StatusDibatalkan:         true,
}

// ValidStatus reports membership in the closed status set. Transitions are
// not required to follow the lifecycle order; any valid value may replace
// any other.
func ValidStatus(s Status) bool { return validStatus[s] }
