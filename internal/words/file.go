package words

import (
	"bufio"
	"fmt"
	"os"
)

// LoadFile reads a newline-delimited word list from path.
func LoadFile(path string) (*List, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open word list: %w", err)
	}
	defer f.Close()

	list := newList()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		list.add(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read word list %s: %w", path, err)
	}
	return list, nil
}
