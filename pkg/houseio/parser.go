// Package houseio reads and writes per-house texture state: scene-graph JSON,
// photoroom CSV assignments, texture crop PNGs and surface embedding JSON.
package houseio

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/soundprediction/texprop/pkg/types"
)

// archFile is the on-disk scene-graph JSON schema.
type archFile struct {
	Key   string     `json:"key"`
	Rooms []archRoom `json:"rooms"`
	Doors [][2]int   `json:"doors"`
}

type archRoom struct {
	Index int    `json:"index"`
	Type  string `json:"type"`
}

// ParseHouse reads a house scene graph from its arch JSON file.
func ParseHouse(key, archPath string) (*types.House, error) {
	data, err := os.ReadFile(archPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read arch file for house %s: %w", key, err)
	}

	var arch archFile
	if err := json.Unmarshal(data, &arch); err != nil {
		return nil, fmt.Errorf("malformed arch file %s: %w", archPath, err)
	}
	if len(arch.Rooms) == 0 {
		return nil, fmt.Errorf("arch file %s describes no rooms", archPath)
	}

	house := &types.House{Key: key}
	for i, room := range arch.Rooms {
		if room.Index != i {
			return nil, fmt.Errorf("arch file %s: room at position %d has index %d", archPath, i, room.Index)
		}
		house.Rooms = append(house.Rooms, types.NewRoom(room.Index, room.Type))
	}
	for _, door := range arch.Doors {
		if house.Room(door[0]) == nil || house.Room(door[1]) == nil {
			return nil, fmt.Errorf("arch file %s: door references unknown room pair %v", archPath, door)
		}
		house.Doors = append(house.Doors, types.Door{RoomA: door[0], RoomB: door[1]})
	}
	return house, nil
}

// LoadPhotoroomAssignments reads a photoroom CSV ("photo,room_index" rows,
// optional header) and records photo assignments on the house's rooms.
func LoadPhotoroomAssignments(house *types.House, csvPath string) error {
	f, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("failed to open photoroom csv for house %s: %w", house.Key, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 2
	for line := 0; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("malformed photoroom csv %s: %w", csvPath, err)
		}
		if line == 0 && record[0] == "photo" {
			continue // header
		}
		roomIndex, err := strconv.Atoi(strings.TrimSpace(record[1]))
		if err != nil {
			return fmt.Errorf("malformed room index in photoroom csv %s: %w", csvPath, err)
		}
		room := house.Room(roomIndex)
		if room == nil {
			return fmt.Errorf("photoroom csv %s references unknown room %d", csvPath, roomIndex)
		}
		room.Photos = append(room.Photos, strings.TrimSpace(record[0]))
	}
}

// ReadDataList returns the house keys of a data split, read from
// "<listDir>/<split>.txt", one key per line, blank lines and "#" comments
// skipped.
func ReadDataList(listDir, split string) ([]string, error) {
	path := filepath.Join(listDir, split+".txt")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read data list for split %s: %w", split, err)
	}
	defer f.Close()

	var keys []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		keys = append(keys, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read data list %s: %w", path, err)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("data list %s is empty", path)
	}
	return keys, nil
}
