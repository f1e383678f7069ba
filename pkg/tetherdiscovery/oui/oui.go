// Package oui maps a device's MAC address to its manufacturer using an IEEE
// OUI database file (oui.txt). Lookups are disabled until a database is set.
package oui

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"

	"github.com/klauspost/oui"
)

// ErrNoDatabase is returned by Lookup when no database has been configured.
var ErrNoDatabase = errors.New("no OUI database configured")

var (
	dbMu   sync.RWMutex
	db     oui.OuiDB
	dbPath string
)

// DebugLogger is a callback for debug logging.
// Set this to receive debug messages from OUI operations.
var DebugLogger func(format string, args ...interface{})

func debugLog(format string, args ...interface{}) {
	if DebugLogger != nil {
		DebugLogger(format, args...)
	}
}

// VendorInfo contains information about a MAC address vendor.
type VendorInfo struct {
	Manufacturer string
	Address      []string
	Country      string
	Prefix       string
}

// SetDatabase loads the OUI database at path and makes it the active one.
// An empty path disables vendor lookups.
func SetDatabase(path string) error {
	if path == "" {
		dbMu.Lock()
		db, dbPath = nil, ""
		dbMu.Unlock()
		return nil
	}

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("OUI database file not found: %w", err)
	}
	loaded, err := oui.OpenStaticFile(path)
	if err != nil {
		return fmt.Errorf("failed to open OUI database: %w", err)
	}

	dbMu.Lock()
	db, dbPath = loaded, path
	dbMu.Unlock()

	debugLog("OUI database loaded from %s", path)
	return nil
}

// DatabasePath returns the path of the active database, or "".
func DatabasePath() string {
	dbMu.RLock()
	defer dbMu.RUnlock()
	return dbPath
}

// IsLoaded returns true if an OUI database is active.
func IsLoaded() bool {
	dbMu.RLock()
	defer dbMu.RUnlock()
	return db != nil
}

// Lookup looks up the vendor information for a MAC address.
// The MAC address can be in various formats: "00:11:22:33:44:55", "00-11-22-33-44-55", "001122334455".
// An address missing from the database yields (nil, nil).
func Lookup(mac string) (*VendorInfo, error) {
	dbMu.RLock()
	current := db
	dbMu.RUnlock()
	if current == nil {
		return nil, ErrNoDatabase
	}

	mac = NormalizeMAC(mac)
	if mac == "" {
		return nil, fmt.Errorf("invalid MAC address format")
	}
	hwAddr, err := net.ParseMAC(mac)
	if err != nil {
		return nil, fmt.Errorf("failed to parse MAC address: %w", err)
	}

	entry, err := current.Query(hwAddr.String())
	if err != nil {
		if errors.Is(err, oui.ErrNotFound) {
			debugLog("%s: vendor not found in database", mac)
			return nil, nil
		}
		return nil, fmt.Errorf("OUI lookup failed: %w", err)
	}

	vendor := &VendorInfo{
		Manufacturer: entry.Manufacturer,
		Address:      entry.Address,
		Country:      entry.Country,
		Prefix:       entry.Prefix.String(),
	}
	debugLog("%s -> %s", mac, vendor.Manufacturer)
	return vendor, nil
}

// LookupName returns just the manufacturer name, or "" if unknown.
func LookupName(mac string) string {
	vendor, err := Lookup(mac)
	if err != nil || vendor == nil {
		return ""
	}
	return vendor.Manufacturer
}

// NormalizeMAC normalizes various MAC address formats to aa:bb:cc:dd:ee:ff.
// Returns empty string if invalid.
func NormalizeMAC(mac string) string {
	mac = strings.ToLower(mac)
	mac = strings.NewReplacer("-", "", ":", "", ".", "").Replace(mac)

	if len(mac) != 12 {
		return ""
	}
	for _, c := range mac {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return ""
		}
	}

	return fmt.Sprintf("%s:%s:%s:%s:%s:%s",
		mac[0:2], mac[2:4], mac[4:6], mac[6:8], mac[8:10], mac[10:12])
}
