// Command genfeed generates a sample property listing feed for local runs and
// test fixtures. It writes the same XML shape the ingestion driver parses, so
// a generated feed exercises the full pipeline end to end.
//
// Usage:
//
//	go run ./cmd/genfeed -out data/sample_feed.xml -count 25 -duplicates 2
package main

import (
	"encoding/xml"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
)

type identification struct {
	IDValue string `xml:"IDValue,attr"`
}

type address struct {
	City            string `xml:"City"`
	UnparsedAddress string `xml:"UnparsedAddress"`
}

type unit struct {
	UnitBedrooms string `xml:"UnitBedrooms"`
}

type units struct {
	Units []unit `xml:"Unit"`
}

type ilsUnit struct {
	Units units `xml:"Units"`
}

type propertyID struct {
	Identification identification `xml:"Identification"`
	MarketingName  string         `xml:"MarketingName"`
	Email          string         `xml:"Email"`
	Address        address        `xml:"Address"`
}

type property struct {
	PropertyID propertyID `xml:"PropertyID"`
	ILSUnits   []ilsUnit  `xml:"ILS_Unit"`
}

type physicalProperty struct {
	XMLName    xml.Name   `xml:"PhysicalProperty"`
	Properties []property `xml:"Property"`
}

var streets = []string{
	"Main St", "State St", "Gorham St", "Johnson St", "Mifflin St",
	"Willy St", "Monroe St", "Regent St", "University Ave", "Langdon St",
}

var cities = []string{"Madison", "Madison", "Madison", "Milwaukee", "Middleton"}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the generated feed")
	count := flag.Int("count", 20, "number of distinct properties")
	duplicates := flag.Int("duplicates", 1, "number of duplicated property entries appended to the feed")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	rng := rand.New(rand.NewSource(*seed))

	doc := physicalProperty{Properties: make([]property, 0, *count+*duplicates)}
	for i := 0; i < *count; i++ {
		doc.Properties = append(doc.Properties, genProperty(rng, i))
	}
	for i := 0; i < *duplicates && i < *count; i++ {
		doc.Properties = append(doc.Properties, doc.Properties[rng.Intn(*count)])
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create %s: %w", *out, err)
	}
	defer f.Close()

	if _, err := f.WriteString(xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(f)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode feed: %w", err)
	}

	log.Printf("wrote %d properties (%d duplicates) to %s", *count, *duplicates, *out)
	return nil
}

func genProperty(rng *rand.Rand, i int) property {
	city := cities[rng.Intn(len(cities))]
	street := streets[rng.Intn(len(streets))]
	number := 100 + rng.Intn(900)

	unitCount := 1 + rng.Intn(3)
	us := make([]unit, 0, unitCount)
	for j := 0; j < unitCount; j++ {
		us = append(us, unit{UnitBedrooms: fmt.Sprintf("%d.0", 1+rng.Intn(4))})
	}

	return property{
		PropertyID: propertyID{
			Identification: identification{IDValue: fmt.Sprintf("prop-%03d", i)},
			MarketingName:  fmt.Sprintf("%s Apartments %d", street, i),
			Email:          fmt.Sprintf("leasing%d@example.test", i),
			Address: address{
				City:            city,
				UnparsedAddress: fmt.Sprintf("%d %s, %s WI", number, street, city),
			},
		},
		ILSUnits: []ilsUnit{{Units: units{Units: us}}},
	}
}
