package availabilitystore

import "github.com/sirupsen/logrus"

var log = logrus.WithField("prefix", "availabilitystore")
