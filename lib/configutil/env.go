package configutil

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv loads the given dotenv files into the process environment,
// missing files are skipped and variables already set are kept.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		err := godotenv.Load(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// EnvDefault sets *target to the value of the environment variable `key`
// when *target is empty.
func EnvDefault(target *string, key string) {
	if *target != "" {
		return
	}
	value, ok := os.LookupEnv(key)
	if ok {
		*target = value
	}
}
