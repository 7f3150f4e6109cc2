package feed_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/listing-weather-etl/internal/feed"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<PhysicalProperty>
  <Property>
    <PropertyID>
      <Identification IDValue="prop-100"/>
      <MarketingName>Lakeshore Flats</MarketingName>
      <Email>leasing@lakeshoreflats.example</Email>
      <Address>
        <City>Madison</City>
        <UnparsedAddress>123 Main St, Madison WI</UnparsedAddress>
      </Address>
    </PropertyID>
    <ILS_Unit>
      <Units>
        <Unit><UnitBedrooms>2.0</UnitBedrooms></Unit>
        <Unit><UnitBedrooms>1.0</UnitBedrooms></Unit>
      </Units>
    </ILS_Unit>
    <ILS_Unit>
      <Units>
        <Unit><UnitBedrooms>3.0</UnitBedrooms></Unit>
      </Units>
    </ILS_Unit>
  </Property>
  <Property>
    <PropertyID>
      <Identification IDValue="prop-200"/>
      <MarketingName>Prairie Court</MarketingName>
      <Address>
        <City>Milwaukee</City>
        <UnparsedAddress>500 Water St, Milwaukee WI</UnparsedAddress>
      </Address>
    </PropertyID>
  </Property>
  <Property>
    <PropertyID>
      <Identification IDValue="prop-100"/>
      <MarketingName>Lakeshore Flats</MarketingName>
      <Address>
        <City>Madison</City>
        <UnparsedAddress>123 Main St, Madison WI</UnparsedAddress>
      </Address>
    </PropertyID>
  </Property>
</PhysicalProperty>`

func TestParse(t *testing.T) {
	properties, err := feed.Parse(strings.NewReader(sampleFeed))
	require.NoError(t, err)
	require.Len(t, properties, 3)

	first := properties[0]
	assert.Equal(t, "prop-100", first.ID)
	assert.Equal(t, "Lakeshore Flats", first.Name)
	assert.Equal(t, "leasing@lakeshoreflats.example", first.Email)
	assert.Equal(t, "Madison", first.City)
	assert.Equal(t, "123 Main St, Madison WI", first.UnparsedAddress)
	assert.Equal(t, 6, first.Bedrooms)

	second := properties[1]
	assert.Equal(t, "prop-200", second.ID)
	assert.Equal(t, "Milwaukee", second.City)
	assert.Empty(t, second.Email)
	assert.Zero(t, second.Bedrooms)
}

func TestParse_MalformedDocument(t *testing.T) {
	_, err := feed.Parse(strings.NewReader("<PhysicalProperty><Property>"))
	assert.Error(t, err)
}

func TestParse_SkipsUnparsableBedroomValues(t *testing.T) {
	doc := `<PhysicalProperty><Property>
	  <PropertyID><Identification IDValue="p-1"/></PropertyID>
	  <ILS_Unit><Units>
	    <Unit><UnitBedrooms>two</UnitBedrooms></Unit>
	    <Unit><UnitBedrooms>2.0</UnitBedrooms></Unit>
	  </Units></ILS_Unit>
	</Property></PhysicalProperty>`

	properties, err := feed.Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, properties, 1)
	assert.Equal(t, 2, properties[0].Bedrooms)
}
