package entity

import "time"

// PINLength longitud exacta del PIN offline.
const PINLength = 4

// OfflinePINRecord credencial local para autenticación sin conexión.
// Una por email; sobrevive al logout.
type OfflinePINRecord struct {
	Email     string // normalizado con NormalizeEmail
	PINHash   string // bcrypt, nunca el PIN plano
	Identity  Identity
	CreatedAt time.Time
}

// ValidPINFormat true si pin son exactamente 4 dígitos ASCII.
func ValidPINFormat(pin string) bool {
	if len(pin) != PINLength {
		return false
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return false
		}
	}
	return true
}
