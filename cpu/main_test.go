package cpu

import (
	"os"
	"testing"

	"github.com/ezrec/pippin/translate"
)

func TestMain(m *testing.M) {
	translate.SetLanguage("en-US")
	os.Exit(m.Run())
}
