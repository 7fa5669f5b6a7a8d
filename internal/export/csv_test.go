package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []Row{
		{Image: "img1.jpg", X: 120, Y: 80, Lat: 12.5, Lon: 45, GCP: "P1"},
		{Image: "img 2.jpg", X: 3.25, Y: 0, Lat: -1, Lon: 2, GCP: "P,2"},
	})
	require.NoError(t, err)

	want := "Image Name,pixel x,pixel y,latitude,longitude,gcp name\n" +
		"img1.jpg,120,80,12.5,45,P1\n" +
		"img 2.jpg,3.25,0,-1,2,\"P,2\"\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSV_HeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "Image Name,pixel x,pixel y,latitude,longitude,gcp name\n", buf.String())
}

func TestReadCSV_ColumnOrderIndependent(t *testing.T) {
	in := "gcp name,Image Name,latitude,longitude,pixel y,pixel x\n" +
		"P1,img1.jpg,12.5,45,80,120\n"

	rows, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []Row{{Image: "img1.jpg", X: 120, Y: 80, Lat: 12.5, Lon: 45, GCP: "P1"}}, rows)
}

func TestReadCSV_Empty(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadCSV_MissingColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("Image Name,pixel x\nimg1.jpg,1\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestReadCSV_BadNumber(t *testing.T) {
	in := "Image Name,pixel x,pixel y,latitude,longitude,gcp name\n" +
		"img1.jpg,left,80,12.5,45,P1\n"

	_, err := ReadCSV(strings.NewReader(in))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pixel x")
}
