package vkg

import (
	"fmt"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
	"go.uber.org/zap"
)

// ValidationLayerName is the Khronos validation layer.
const ValidationLayerName = "VK_LAYER_KHRONOS_validation"

// Initialize loads the Vulkan loader. No window system integration is set up.
func Initialize() error {
	if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
		return err
	}
	return vk.Init()
}

// Version is a Vulkan API or application version.
type Version struct {
	Major int
	Minor int
	Patch int
}

// VKVersion returns the packed Vulkan representation of v.
func (v Version) VKVersion() uint32 {
	return vk.MakeVersion(v.Major, v.Minor, v.Patch)
}

// MinRayTracingAPIVersion is the oldest API version the ray tracing pipeline extension works with.
var MinRayTracingAPIVersion = Version{Major: 1, Minor: 2}

// App describes the application to the Vulkan instance.
type App struct {
	Name       string
	EngineName string
	Version    Version
	// APIVersion is raised to MinRayTracingAPIVersion when lower.
	APIVersion Version

	EnabledLayers     []string
	EnabledExtensions []string
}

func (a *App) apiVersion() Version {
	v := a.APIVersion
	if v.Major < MinRayTracingAPIVersion.Major ||
		(v.Major == MinRayTracingAPIVersion.Major && v.Minor < MinRayTracingAPIVersion.Minor) {
		return MinRayTracingAPIVersion
	}
	return v
}

// SupportedLayers returns the instance layers known to the loader. Initialize must have been
// called.
func SupportedLayers() ([]string, error) {
	var count uint32
	if err := vk.Error(vk.EnumerateInstanceLayerProperties(&count, nil)); err != nil {
		return nil, err
	}
	props := make([]vk.LayerProperties, count)
	if err := vk.Error(vk.EnumerateInstanceLayerProperties(&count, props)); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for _, l := range props {
		l.Deref()
		names = append(names, vk.ToString(l.LayerName[:]))
	}
	return names, nil
}

// EnableValidation enables the Khronos validation layer and the debug report extension.
func (a *App) EnableValidation() error {
	layers, err := SupportedLayers()
	if err != nil {
		return fmt.Errorf("error getting supported layers: %w", err)
	}
	if missing := missingExtensions(layers, []string{ValidationLayerName}); len(missing) > 0 {
		return fmt.Errorf("validation layer %q not found", ValidationLayerName)
	}
	a.EnabledLayers = append(a.EnabledLayers, ValidationLayerName)
	a.EnabledExtensions = append(a.EnabledExtensions, "VK_EXT_debug_report")
	return nil
}

// VKApplicationInfo returns the application info passed to vkCreateInstance.
func (a *App) VKApplicationInfo() vk.ApplicationInfo {
	return vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         a.apiVersion().VKVersion(),
		ApplicationVersion: a.Version.VKVersion(),
		PApplicationName:   safeString(a.Name),
		PEngineName:        safeString(a.EngineName),
	}
}

// CreateInstance creates the Vulkan instance.
func (a *App) CreateInstance() (*Instance, error) {
	appInfo := a.VKApplicationInfo()

	extensions := safeStrings(a.EnabledExtensions)
	layers := safeStrings(a.EnabledLayers)

	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}

	instance := &Instance{}
	if err := vk.Error(vk.CreateInstance(&createInfo, nil, &instance.VKInstance)); err != nil {
		return nil, err
	}
	vk.InitInstance(instance.VKInstance)

	Logger().Info("instance created",
		zap.String("app", a.Name),
		zap.Strings("layers", a.EnabledLayers),
		zap.Strings("extensions", a.EnabledExtensions))
	return instance, nil
}

// Instance is a Vulkan instance.
type Instance struct {
	VKInstance    vk.Instance
	debugCallback vk.DebugReportCallback
}

// PhysicalDevices returns every physical device of the instance.
func (i *Instance) PhysicalDevices() ([]*PhysicalDevice, error) {
	var count uint32
	if err := vk.Error(vk.EnumeratePhysicalDevices(i.VKInstance, &count, nil)); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}

	devices := make([]vk.PhysicalDevice, count)
	if err := vk.Error(vk.EnumeratePhysicalDevices(i.VKInstance, &count, devices)); err != nil {
		return nil, err
	}

	ret := make([]*PhysicalDevice, count)
	for n, device := range devices {
		pd := &PhysicalDevice{VKPhysicalDevice: device}
		vk.GetPhysicalDeviceProperties(device, &pd.VKPhysicalDeviceProperties)
		pd.VKPhysicalDeviceProperties.Deref()
		pd.DeviceName = vk.ToString(pd.VKPhysicalDeviceProperties.DeviceName[:])
		ret[n] = pd
	}
	return ret, nil
}

// RayTracingDevices returns the physical devices that support every extension in
// RayTracingExtensions.
func (i *Instance) RayTracingDevices() ([]*PhysicalDevice, error) {
	all, err := i.PhysicalDevices()
	if err != nil {
		return nil, err
	}
	var ret []*PhysicalDevice
	for _, pd := range all {
		missing, err := pd.MissingExtensions(RayTracingExtensions...)
		if err != nil {
			return nil, err
		}
		if len(missing) > 0 {
			Logger().Debug("skipping device without ray tracing",
				zap.Stringer("device", pd), zap.Strings("missing", missing))
			continue
		}
		ret = append(ret, pd)
	}
	return ret, nil
}

// EnableDebugReport forwards validation messages to Logger. The instance must have been created
// with validation enabled.
func (i *Instance) EnableDebugReport() error {
	return vk.Error(vk.CreateDebugReportCallback(i.VKInstance, &vk.DebugReportCallbackCreateInfo{
		SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
		PfnCallback: debugReport,
	}, nil, &i.debugCallback))
}

func debugReport(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
	object uint64, location uint, messageCode int32, pLayerPrefix string,
	pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

	fields := []zap.Field{zap.String("layer", pLayerPrefix), zap.Int32("code", messageCode)}
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		Logger().Error(pMessage, fields...)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit|vk.DebugReportPerformanceWarningBit) != 0:
		Logger().Warn(pMessage, fields...)
	default:
		Logger().Debug(pMessage, fields...)
	}
	return vk.Bool32(vk.False)
}

// Destroy destroys the debug callback, if any, and the instance.
func (i *Instance) Destroy() {
	var none vk.DebugReportCallback
	if i.debugCallback != none {
		vk.DestroyDebugReportCallback(i.VKInstance, i.debugCallback, nil)
	}
	vk.DestroyInstance(i.VKInstance, nil)
}
