// Package feed parses property listing feeds and drives an enrichment run:
// parse, filter to the target city, persist, and publish one enrichment job
// per property.
//
// The feed is an XML document of Property elements. Identification carries the
// property ID; Address carries the city and the unparsed street address;
// bedroom counts are summed over every Unit of every ILS_Unit. Bedroom values
// arrive as decimal strings ("2.0") and are truncated to integers.
package feed

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/couchcryptid/listing-weather-etl/internal/domain"
)

// feedDocument matches any root element holding Property children, so both
// bare and namespaced feed roots parse.
type feedDocument struct {
	Properties []feedProperty `xml:"Property"`
}

type feedProperty struct {
	Identification struct {
		IDValue string `xml:"IDValue,attr"`
	} `xml:"PropertyID>Identification"`
	MarketingName string `xml:"PropertyID>MarketingName"`
	Email         string `xml:"PropertyID>Email"`
	Address       struct {
		City            string `xml:"City"`
		UnparsedAddress string `xml:"UnparsedAddress"`
	} `xml:"PropertyID>Address"`
	ILSUnits []struct {
		Units []struct {
			Units []struct {
				UnitBedrooms string `xml:"UnitBedrooms"`
			} `xml:"Unit"`
		} `xml:"Units"`
	} `xml:"ILS_Unit"`
}

// Parse decodes a listing feed into domain properties in document order.
// A malformed document fails the whole parse; individual properties with
// missing optional fields do not.
func Parse(r io.Reader) ([]domain.Property, error) {
	var doc feedDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	properties := make([]domain.Property, 0, len(doc.Properties))
	for _, p := range doc.Properties {
		properties = append(properties, domain.Property{
			ID:              p.Identification.IDValue,
			Name:            p.MarketingName,
			Email:           p.Email,
			City:            p.Address.City,
			UnparsedAddress: p.Address.UnparsedAddress,
			Bedrooms:        sumBedrooms(p),
		})
	}
	return properties, nil
}

func sumBedrooms(p feedProperty) int {
	total := 0
	for _, ils := range p.ILSUnits {
		for _, units := range ils.Units {
			for _, unit := range units.Units {
				v, err := strconv.ParseFloat(unit.UnitBedrooms, 64)
				if err != nil {
					continue
				}
				total += int(v)
			}
		}
	}
	return total
}
