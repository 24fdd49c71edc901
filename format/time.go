// time.go - Formatierung von Zeitdauern
// Hauptfunktionen: HumanNanoseconds
package format

import (
	"fmt"
	"time"
)

// HumanNanoseconds formatiert eine Dauer in Millisekunden
func HumanNanoseconds(d time.Duration) string {
	return fmt.Sprintf("%.6f ms", float64(d.Nanoseconds())/1e6)
}
