package domain

// Photo is a voucher image held by a form: either the candidate the
// participant selected or the compressed artifact derived from it.
type Photo struct {
	Filename  string
	MediaType string
	Data      []byte
}

// Size is the byte size of the photo.
func (p *Photo) Size() int64 {
	if p == nil {
		return 0
	}
	return int64(len(p.Data))
}
