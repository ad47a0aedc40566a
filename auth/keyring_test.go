package auth

import (
	"testing"

	"github.com/cinegate/cinegate/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"
)

func TestSecret(t *testing.T) {
	Convey("Given a mocked keyring", t, func() {
		keyring.MockInit()
		defer viper.Reset()

		Convey("Configured values win over the keyring", func() {
			So(SetSecret(key.RenderAPIKey, "from-keyring"), ShouldBeNil)
			viper.Set(key.RenderAPIKey, "from-env")

			v, err := Secret(key.RenderAPIKey)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, "from-env")
		})

		Convey("The keyring is used when nothing is configured", func() {
			So(SetSecret(key.BrowserRemotePassword, "hunter2"), ShouldBeNil)

			v, err := Secret(key.BrowserRemotePassword)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, "hunter2")
		})

		Convey("A missing secret is empty, not an error", func() {
			v, err := Secret(key.RenderAPIKey)
			So(err, ShouldBeNil)
			So(v, ShouldBeEmpty)
		})

		Convey("Only known keys are secrets", func() {
			So(IsSecret(key.RenderAPIKey), ShouldBeTrue)
			So(IsSecret(key.ServerAddress), ShouldBeFalse)
		})
	})
}
