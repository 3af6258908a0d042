package card

import (
	"time"
)

// Kind is the physical card technology of a dump.
type Kind string

const (
	KindDESFire Kind = "desfire"
	KindFeliCa  Kind = "felica"
	KindClassic Kind = "classic"
	KindCEPAS   Kind = "cepas"
)

// Dump is the raw content read from one card.
type Dump struct {
	Kind      Kind          `json:"kind" yaml:"kind"`
	UID       HexBytes      `json:"uid,omitempty" yaml:"uid,omitempty"`
	ScannedAt time.Time     `json:"scanned_at,omitempty" yaml:"scanned_at,omitempty"`
	Label     string        `json:"label,omitempty" yaml:"label,omitempty"`
	Apps      []Application `json:"applications,omitempty" yaml:"applications,omitempty"`
	Systems   []System      `json:"systems,omitempty" yaml:"systems,omitempty"`
	Sectors   []Sector      `json:"sectors,omitempty" yaml:"sectors,omitempty"`
	Purses    []Purse       `json:"purses,omitempty" yaml:"purses,omitempty"`
	Histories []Purse       `json:"histories,omitempty" yaml:"histories,omitempty"`
}

// Application is a DESFire application.
type Application struct {
	ID    uint32 `json:"id" yaml:"id"`
	Files []File `json:"files" yaml:"files"`
}

// File is a DESFire file. Record files carry Records, others Data. Error is
// set when the reader could not read the file.
type File struct {
	ID      int        `json:"id" yaml:"id"`
	Data    HexBytes   `json:"data,omitempty" yaml:"data,omitempty"`
	Records []HexBytes `json:"records,omitempty" yaml:"records,omitempty"`
	Error   string     `json:"error,omitempty" yaml:"error,omitempty"`
}

// System is a FeliCa system.
type System struct {
	Code     int       `json:"code" yaml:"code"`
	Services []Service `json:"services" yaml:"services"`
	// ServiceCodes lists every service the card advertises, including
	// services that could not be read.
	ServiceCodes []int `json:"service_codes,omitempty" yaml:"service_codes,omitempty"`
}

// Service is a FeliCa service and its 16 byte blocks.
type Service struct {
	Code   int        `json:"code" yaml:"code"`
	Blocks []HexBytes `json:"blocks" yaml:"blocks"`
}

// Sector is a MIFARE Classic sector.
type Sector struct {
	Index  int        `json:"index" yaml:"index"`
	Blocks []HexBytes `json:"blocks" yaml:"blocks"`
	Error  string     `json:"error,omitempty" yaml:"error,omitempty"`
}

// Purse is a CEPAS purse or history file.
type Purse struct {
	ID   int      `json:"id" yaml:"id"`
	Data HexBytes `json:"data" yaml:"data"`
}

// App returns the DESFire application with the given id.
func (d *Dump) App(id uint32) (*Application, bool) {
	for i := range d.Apps {
		if d.Apps[i].ID == id {
			return &d.Apps[i], true
		}
	}
	return nil, false
}

// HasApp reports whether any of the ids is present.
func (d *Dump) HasApp(ids ...uint32) bool {
	for _, id := range ids {
		if _, ok := d.App(id); ok {
			return true
		}
	}
	return false
}

// File returns the file with the given id.
func (a *Application) File(id int) (*File, bool) {
	for i := range a.Files {
		if a.Files[i].ID == id {
			return &a.Files[i], true
		}
	}
	return nil, false
}

// ReadFile returns the data of a DESFire standard or value file. Record files
// are returned concatenated in record order.
func (d *Dump) ReadFile(app uint32, file int) ([]byte, error) {
	f, err := d.file(app, file)
	if err != nil {
		return nil, err
	}
	if len(f.Data) > 0 {
		return f.Data, nil
	}
	var out []byte
	for _, r := range f.Records {
		out = append(out, r...)
	}
	if out == nil {
		return nil, Errorf(app, file, "file is empty")
	}
	return out, nil
}

// ReadRecords returns the records of a DESFire record file. A standard file
// is split into records of size bytes.
func (d *Dump) ReadRecords(app uint32, file int, size int) ([][]byte, error) {
	f, err := d.file(app, file)
	if err != nil {
		return nil, err
	}
	if len(f.Records) > 0 {
		out := make([][]byte, len(f.Records))
		for i, r := range f.Records {
			out[i] = r
		}
		return out, nil
	}
	if size <= 0 || len(f.Data)%size != 0 {
		return nil, Errorf(app, file, "data length %d is not a multiple of %d", len(f.Data), size)
	}
	var out [][]byte
	for off := 0; off < len(f.Data); off += size {
		out = append(out, f.Data[off:off+size])
	}
	return out, nil
}

func (d *Dump) file(app uint32, file int) (*File, error) {
	a, ok := d.App(app)
	if !ok {
		return nil, notPresent(app, file, "application")
	}
	f, ok := a.File(file)
	if !ok {
		return nil, notPresent(app, file, "file")
	}
	if f.Error != "" {
		return nil, Errorf(app, file, "unreadable: %s", f.Error)
	}
	return f, nil
}

// System returns the FeliCa system with the given code.
func (d *Dump) System(code int) (*System, bool) {
	for i := range d.Systems {
		if d.Systems[i].Code == code {
			return &d.Systems[i], true
		}
	}
	return nil, false
}

// Service returns the service with the given code.
func (s *System) Service(code int) (*Service, bool) {
	for i := range s.Services {
		if s.Services[i].Code == code {
			return &s.Services[i], true
		}
	}
	return nil, false
}

// AllServiceCodes returns advertised service codes, falling back to the
// codes of the services that were read.
func (s *System) AllServiceCodes() []int {
	if len(s.ServiceCodes) > 0 {
		return s.ServiceCodes
	}
	codes := make([]int, 0, len(s.Services))
	for _, svc := range s.Services {
		codes = append(codes, svc.Code)
	}
	return codes
}

// ReadBlocks returns the blocks of a FeliCa service. FeliCa has no
// application ids; system is reported in the App field of errors.
func (d *Dump) ReadBlocks(system, service int) ([][]byte, error) {
	sys, ok := d.System(system)
	if !ok {
		return nil, notPresent(uint32(system), service, "system")
	}
	svc, ok := sys.Service(service)
	if !ok {
		return nil, notPresent(uint32(system), service, "service")
	}
	out := make([][]byte, len(svc.Blocks))
	for i, b := range svc.Blocks {
		out[i] = b
	}
	return out, nil
}

// Sector returns the Classic sector with the given index.
func (d *Dump) Sector(index int) (*Sector, bool) {
	for i := range d.Sectors {
		if d.Sectors[i].Index == index {
			return &d.Sectors[i], true
		}
	}
	return nil, false
}

// ReadBlock returns one block of a Classic sector. Sector index is reported
// in the App field of errors.
func (d *Dump) ReadBlock(sector, block int) ([]byte, error) {
	s, ok := d.Sector(sector)
	if !ok {
		return nil, notPresent(uint32(sector), block, "sector")
	}
	if s.Error != "" {
		return nil, Errorf(uint32(sector), block, "unreadable sector: %s", s.Error)
	}
	if block < 0 || block >= len(s.Blocks) {
		return nil, Errorf(uint32(sector), block, "block out of range (sector has %d)", len(s.Blocks))
	}
	return s.Blocks[block], nil
}

// ReadSectorBlocks concatenates count blocks of a sector starting at block.
func (d *Dump) ReadSectorBlocks(sector, block, count int) ([]byte, error) {
	var out []byte
	for i := 0; i < count; i++ {
		b, err := d.ReadBlock(sector, block+i)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// Purse returns the CEPAS purse with the given id.
func (d *Dump) Purse(id int) ([]byte, error) {
	for _, p := range d.Purses {
		if p.ID == id {
			return p.Data, nil
		}
	}
	return nil, notPresent(uint32(id), 0, "purse")
}

// History returns the CEPAS history file with the given id.
func (d *Dump) History(id int) ([]byte, error) {
	for _, p := range d.Histories {
		if p.ID == id {
			return p.Data, nil
		}
	}
	return nil, notPresent(uint32(id), 0, "history")
}
