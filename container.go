package epub

import "encoding/xml"

// containerPath is the well-known location of container.xml in an ePub archive.
const containerPath = "META-INF/container.xml"

// Container models META-INF/container.xml: one Rootfile per rendition,
// in listing order.
type Container struct {
	XMLName   xml.Name   `xml:"container"`
	Version   string     `xml:"version,attr"`
	Rootfiles []Rootfile `xml:"rootfiles>rootfile"`
}

// Rootfile locates the package document of one rendition.
type Rootfile struct {
	FullPath  string `xml:"full-path,attr"`
	MediaType string `xml:"media-type,attr"`
}

// LoadContainer decodes the container manifest of a.
func LoadContainer(a *Archive) (*Container, error) {
	var c Container
	if _, err := a.ReadXML(containerPath, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
